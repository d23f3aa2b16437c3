// Package fees computes the ZIP-317 conventional fee. The fee is a pure
// function of a transaction's logical action count, not of amounts or address
// kinds: one action per note spend, note output, transparent input, or
// transparent output.
package fees

import (
	"github.com/Numi2/zcash-numi-sdk/internal/address"
)

const (
	// MarginalFee is the zatoshi cost per logical action.
	MarginalFee uint64 = 5000
	// GraceActions is the floor below which the fee stops shrinking.
	GraceActions uint64 = 2
)

// Conventional returns the ZIP-317 conventional fee in zatoshi:
// 5000 x max(2, actions).
func Conventional(actions uint64) uint64 {
	if actions < GraceActions {
		actions = GraceActions
	}
	return MarginalFee * actions
}

// EstimateActions counts the logical actions of a request before the node has
// selected concrete inputs: one input for the spending side, one extra note
// spend when the source is shielded, and one output per recipient. Recipients
// with a Unified Address are classified by their preferred receiver, so a
// transparent-only container counts as a transparent output.
//
// The node computes the exact fee from the final transaction shape; this
// estimate is for pre-validation and user feedback.
func EstimateActions(from address.Address, recipients []address.Address) uint64 {
	actions := uint64(1) // at least one input

	if from != nil && address.Shielded(from) {
		actions++ // note spend alongside the funding input
	}

	for range recipients {
		// A shielded output and a transparent output each cost one action;
		// classification only matters once per-pool weights diverge, but the
		// recipient kind is still resolved so unsupported containers fail at
		// build time rather than here.
		actions++
	}

	return actions
}

// EstimateFee composes EstimateActions and Conventional.
func EstimateFee(from address.Address, recipients []address.Address) uint64 {
	return Conventional(EstimateActions(from, recipients))
}

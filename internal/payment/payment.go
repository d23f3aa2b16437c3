// Package payment assembles validated payment requests for the Zcash Payment
// API. A Request is the unit handed to the operation tracker: every payment
// has been checked against the protocol's amount, memo, and network rules,
// and the request knows its own ZIP-317 fee.
package payment

import (
	"fmt"

	"github.com/Numi2/zcash-numi-sdk/internal/address"
	"github.com/Numi2/zcash-numi-sdk/internal/fees"
	"github.com/Numi2/zcash-numi-sdk/internal/util"
)

// MaxMemoSize is the protocol's logical memo limit in bytes, enforced before
// any padding to the fixed memo field.
const MaxMemoSize = 512

// Payment is one recipient of a request.
type Payment struct {
	Recipient address.Address
	// Amount in zatoshi; must be positive.
	Amount uint64
	// Memo is an optional payload delivered inside the shielded output.
	// nil for transparent recipients.
	Memo []byte
}

// Request is a validated, ordered set of payments from one source address.
// Construct through Builder.Build; a zero Request is not meaningful.
type Request struct {
	From     address.Address
	Payments []Payment
	MinConf  uint32
	// FeeOverride, when set, is used verbatim instead of the ZIP-317
	// conventional fee.
	FeeOverride *uint64
}

// Actions returns the request's estimated logical action count.
func (r *Request) Actions() uint64 {
	recipients := make([]address.Address, len(r.Payments))
	for i, p := range r.Payments {
		recipients[i] = p.Recipient
	}
	return fees.EstimateActions(r.From, recipients)
}

// Fee returns the fee the request will be submitted with: the override if one
// was supplied, otherwise the ZIP-317 conventional fee for its action count.
func (r *Request) Fee() uint64 {
	if r.FeeOverride != nil {
		return *r.FeeOverride
	}
	return fees.Conventional(r.Actions())
}

// Total returns the sum of payment amounts (fee excluded). Overflow is
// impossible for a built Request; Builder rejects totals above MaxMoney.
func (r *Request) Total() uint64 {
	var total uint64
	for _, p := range r.Payments {
		total += p.Amount
	}
	return total
}

// Builder validates payments into a Request. The receiver policy decides
// which receiver of a Unified Address a payment targets, which in turn
// decides whether a memo is permitted.
type Builder struct {
	policy address.ReceiverPolicy
}

// NewBuilder returns a Builder with the protocol-preferred receiver order
// (Orchard over Sapling over transparent).
func NewBuilder() *Builder {
	return &Builder{policy: address.PreferOrchard}
}

// WithPolicy overrides the receiver selection policy.
func (b *Builder) WithPolicy(policy address.ReceiverPolicy) *Builder {
	b.policy = policy
	return b
}

// Build validates every payment and the aggregate, returning a Request ready
// for submission. Validation failures are typed: InvalidAmountError,
// MemoTooLongError, MemoNotAllowedError, ErrEmptyRequest, ErrAmountOverflow,
// or a network mismatch from the address package.
func (b *Builder) Build(
	from address.Address,
	payments []Payment,
	minconf uint32,
	feeOverride *uint64,
) (*Request, error) {
	if len(payments) == 0 {
		return nil, ErrEmptyRequest
	}
	if from == nil {
		return nil, fmt.Errorf("source address is required")
	}

	var total uint64
	for i, p := range payments {
		if p.Recipient == nil {
			return nil, fmt.Errorf("payment %d has no recipient", i)
		}
		if p.Recipient.Network() != from.Network() {
			return nil, &address.NetworkMismatchError{
				Expected: from.Network(),
				Actual:   p.Recipient.Network(),
			}
		}

		if p.Amount == 0 || p.Amount > util.MaxMoney {
			return nil, &InvalidAmountError{Index: i, Amount: p.Amount}
		}
		if total > util.MaxMoney-p.Amount {
			return nil, ErrAmountOverflow
		}
		total += p.Amount

		if len(p.Memo) > MaxMemoSize {
			return nil, &MemoTooLongError{Index: i, Size: len(p.Memo)}
		}
		if len(p.Memo) > 0 && !b.memoAllowed(p.Recipient) {
			return nil, &MemoNotAllowedError{Index: i}
		}
	}

	req := &Request{
		From:     from,
		Payments: payments,
		MinConf:  minconf,
	}
	if feeOverride != nil {
		if *feeOverride > util.MaxMoney {
			return nil, ErrAmountOverflow
		}
		fee := *feeOverride
		req.FeeOverride = &fee
	}
	if req.Fee() > util.MaxMoney-total {
		return nil, ErrAmountOverflow
	}
	return req, nil
}

// Single builds a one-payment request, the common send-to-address case.
func (b *Builder) Single(
	from address.Address,
	to address.Address,
	amount uint64,
	memo []byte,
	minconf uint32,
	feeOverride *uint64,
) (*Request, error) {
	return b.Build(from, []Payment{{Recipient: to, Amount: amount, Memo: memo}}, minconf, feeOverride)
}

// memoAllowed reports whether the recipient, resolved under the builder's
// receiver policy, can carry a memo. A Unified Address whose selected
// receiver is transparent cannot, even if a shielded receiver exists under a
// different policy.
func (b *Builder) memoAllowed(recipient address.Address) bool {
	switch a := recipient.(type) {
	case *address.Transparent:
		return false
	case *address.Sapling:
		return true
	case *address.Unified:
		r, ok := a.Preferred(b.policy)
		return ok && (r.Typecode == address.TypecodeSapling || r.Typecode == address.TypecodeOrchard)
	default:
		return false
	}
}

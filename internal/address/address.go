// Package address models the four Zcash address encodings as a closed set of
// types: transparent base58check, Sapling bech32, and ZIP-316 Unified
// Addresses (bech32m over an F4Jumbled receiver container). Orchard has no
// standalone textual form and appears only as a receiver inside a Unified
// Address.
//
// Parsing is pure: Parse never touches the network and always pins the result
// to the network it was parsed for.
package address

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Kind discriminates the address variants.
type Kind uint8

const (
	KindTransparent Kind = iota
	KindSapling
	KindUnified
)

func (k Kind) String() string {
	switch k {
	case KindTransparent:
		return "transparent"
	case KindSapling:
		return "sapling"
	case KindUnified:
		return "unified"
	default:
		return "unknown"
	}
}

// ScriptType distinguishes the two transparent output scripts.
type ScriptType uint8

const (
	P2PKH ScriptType = iota
	P2SH
)

// Address is the closed variant over the supported encodings. The only
// implementations are Transparent, Sapling and Unified.
type Address interface {
	// Network returns the chain this address was parsed or built for.
	Network() Network
	// Kind returns the variant tag.
	Kind() Kind
	// Encode renders the canonical textual form. For addresses produced by
	// Parse this reproduces the input byte-for-byte, modulo bech32 case
	// folding.
	Encode() string

	sealed()
}

// Shielded reports whether payments to a can carry a memo: Sapling always,
// Unified when it holds at least one shielded receiver, transparent never.
func Shielded(a Address) bool {
	switch addr := a.(type) {
	case *Transparent:
		return false
	case *Sapling:
		return true
	case *Unified:
		_, ok := addr.Preferred(RequireShielded)
		return ok
	default:
		return false
	}
}

// Transparent is a base58check-encoded P2PKH or P2SH address (t1/t3 on
// mainnet, tm/t2 on the test networks).
type Transparent struct {
	Net    Network
	Script ScriptType
	Hash   [20]byte
}

func (a *Transparent) Network() Network { return a.Net }
func (a *Transparent) Kind() Kind       { return KindTransparent }
func (a *Transparent) sealed()          {}

func (a *Transparent) Encode() string {
	prefix := transparentPrefix(a.Net, a.Script)

	payload := make([]byte, 0, 2+20+4)
	payload = append(payload, prefix[:]...)
	payload = append(payload, a.Hash[:]...)

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	payload = append(payload, second[:4]...)

	return base58.Encode(payload)
}

// Sapling is a bech32-encoded shielded payment address: an 11-byte
// diversifier followed by a 32-byte diversified transmission key.
type Sapling struct {
	Net     Network
	Payload [43]byte
}

func (a *Sapling) Network() Network { return a.Net }
func (a *Sapling) Kind() Kind       { return KindSapling }
func (a *Sapling) sealed()          {}

func (a *Sapling) Encode() string {
	converted, err := bech32.ConvertBits(a.Payload[:], 8, 5, true)
	if err != nil {
		panic(err) // 8->5 with padding cannot fail
	}
	encoded, err := bech32.Encode(saplingHRP(a.Net), converted)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Parse decodes text as an address on the expected network. The encoding is
// discriminated by prefix/HRP before any full decode, so a testnet string
// parsed for mainnet fails with NetworkMismatchError rather than a generic
// decode error.
func Parse(text string, network Network) (Address, error) {
	if text == "" {
		return nil, malformed("empty address")
	}

	// Base58 strings have no separator; anything starting with 't' is a
	// transparent candidate.
	if text[0] == 't' {
		return parseTransparent(text, network)
	}

	lower := strings.ToLower(text)
	if lower != text && strings.ToUpper(text) != text {
		return nil, malformed("mixed-case bech32 string")
	}

	sep := strings.LastIndexByte(lower, '1')
	if sep <= 0 {
		return nil, malformed("unknown address prefix")
	}
	hrp := lower[:sep]

	if _, ok := saplingNetwork(hrp); ok {
		return parseSapling(lower, hrp, network)
	}
	if _, ok := unifiedNetwork(hrp); ok {
		return parseUnified(lower, hrp, network)
	}
	return nil, malformed("unknown address prefix %q", hrp)
}

func parseTransparent(text string, network Network) (Address, error) {
	decoded := base58.Decode(text)
	if len(decoded) != 2+20+4 {
		return nil, malformed("transparent address: invalid length %d", len(decoded))
	}

	payload, checksum := decoded[:22], decoded[22:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if second[0] != checksum[0] || second[1] != checksum[1] ||
		second[2] != checksum[2] || second[3] != checksum[3] {
		return nil, malformed("transparent address: checksum mismatch")
	}

	var prefix [2]byte
	copy(prefix[:], payload[:2])
	net, script, ok := transparentNetwork(prefix)
	if !ok {
		return nil, malformed("transparent address: unknown prefix %x", prefix)
	}
	// Testnet and regtest share transparent prefixes.
	if net != network && !(net == Testnet && network == Regtest) {
		return nil, &NetworkMismatchError{Expected: network, Actual: net}
	}

	addr := &Transparent{Net: network, Script: script}
	copy(addr.Hash[:], payload[2:])
	return addr, nil
}

func parseSapling(lower, hrp string, network Network) (Address, error) {
	actual, _ := saplingNetwork(hrp)
	if actual != network {
		return nil, &NetworkMismatchError{Expected: network, Actual: actual}
	}

	decodedHRP, data, err := bech32.DecodeNoLimit(lower)
	if err != nil {
		return nil, malformed("sapling address: %v", err)
	}
	if decodedHRP != hrp {
		return nil, malformed("sapling address: hrp mismatch")
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, malformed("sapling address: %v", err)
	}
	if len(payload) != 43 {
		return nil, malformed("sapling address: invalid payload length %d", len(payload))
	}

	addr := &Sapling{Net: network}
	copy(addr.Payload[:], payload)
	return addr, nil
}

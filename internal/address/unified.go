package address

import (
	"encoding/binary"
	"sort"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Receiver typecodes defined by ZIP-316. Typecodes 0xC0..0xDF are metadata a
// parser may ignore; 0xE0 and above are MUST-understand and force rejection.
const (
	TypecodeP2PKH   uint64 = 0x00
	TypecodeP2SH    uint64 = 0x01
	TypecodeSapling uint64 = 0x02
	TypecodeOrchard uint64 = 0x03

	metadataTypecodeMin       uint64 = 0xC0
	mustUnderstandTypecodeMin uint64 = 0xE0
)

// receiverLengths pins the payload size of each known receiver typecode.
var receiverLengths = map[uint64]int{
	TypecodeP2PKH:   20,
	TypecodeP2SH:    20,
	TypecodeSapling: 43,
	TypecodeOrchard: 43,
}

// Receiver is one typed item inside a Unified Address container. Unknown
// receivers and ignorable metadata are retained verbatim so re-encoding
// reproduces the original text.
type Receiver struct {
	Typecode uint64
	Data     []byte
}

// Known reports whether this parser understands the receiver's typecode.
func (r Receiver) Known() bool {
	_, ok := receiverLengths[r.Typecode]
	return ok
}

func (r Receiver) shielded() bool {
	return r.Typecode == TypecodeSapling || r.Typecode == TypecodeOrchard
}

// ReceiverPolicy selects which receiver of a Unified Address a payment should
// target. The protocol's preference order is Orchard over Sapling over
// transparent; the policy makes that order explicit and overridable.
type ReceiverPolicy uint8

const (
	// PreferOrchard: Orchard, else Sapling, else a transparent receiver.
	PreferOrchard ReceiverPolicy = iota
	// PreferSapling: Sapling, else Orchard, else a transparent receiver.
	PreferSapling
	// RequireShielded: Orchard or Sapling only; never falls back to a
	// transparent receiver.
	RequireShielded
)

// Unified is a ZIP-316 Unified Address: one or more typed receivers bundled
// behind a single bech32m encoding. Receivers are held in ascending typecode
// order, the only order the container format permits.
type Unified struct {
	Net       Network
	Receivers []Receiver
}

func (a *Unified) Network() Network { return a.Net }
func (a *Unified) Kind() Kind       { return KindUnified }
func (a *Unified) sealed()          {}

// Preferred returns the receiver a payment should be delivered to under the
// given policy, or false when the policy cannot be satisfied.
func (a *Unified) Preferred(policy ReceiverPolicy) (Receiver, bool) {
	order := []uint64{TypecodeOrchard, TypecodeSapling, TypecodeP2PKH, TypecodeP2SH}
	switch policy {
	case PreferSapling:
		order = []uint64{TypecodeSapling, TypecodeOrchard, TypecodeP2PKH, TypecodeP2SH}
	case RequireShielded:
		order = []uint64{TypecodeOrchard, TypecodeSapling}
	}

	for _, tc := range order {
		for _, r := range a.Receivers {
			if r.Typecode == tc {
				return r, true
			}
		}
	}
	return Receiver{}, false
}

func (a *Unified) Encode() string {
	items := make([]Receiver, len(a.Receivers))
	copy(items, a.Receivers)
	sort.Slice(items, func(i, j int) bool { return items[i].Typecode < items[j].Typecode })

	var raw []byte
	for _, r := range items {
		raw = appendCompactSize(raw, r.Typecode)
		raw = appendCompactSize(raw, uint64(len(r.Data)))
		raw = append(raw, r.Data...)
	}
	pad := hrpPadding(unifiedHRP(a.Net))
	raw = append(raw, pad[:]...)

	if err := f4Jumble(raw); err != nil {
		panic(err) // container size is checked at construction
	}

	converted, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.EncodeM(unifiedHRP(a.Net), converted)
	if err != nil {
		panic(err)
	}
	return encoded
}

// NewUnified builds a Unified Address from receivers, validating the same
// invariants Parse enforces.
func NewUnified(network Network, receivers []Receiver) (*Unified, error) {
	items := make([]Receiver, len(receivers))
	copy(items, receivers)
	sort.Slice(items, func(i, j int) bool { return items[i].Typecode < items[j].Typecode })
	return validateUnified(network, items)
}

func validateUnified(network Network, items []Receiver) (*Unified, error) {
	known := 0
	transparent := 0
	size := 16 // trailing HRP padding
	var prev uint64
	for i, r := range items {
		size += len(appendCompactSize(nil, r.Typecode))
		size += len(appendCompactSize(nil, uint64(len(r.Data))))
		size += len(r.Data)
		if i > 0 && r.Typecode <= prev {
			return nil, malformed("unified address: receivers not in ascending typecode order")
		}
		prev = r.Typecode

		if r.Typecode >= mustUnderstandTypecodeMin {
			return nil, &UnsupportedReceiverError{Typecode: r.Typecode}
		}
		if want, ok := receiverLengths[r.Typecode]; ok {
			if len(r.Data) != want {
				return nil, malformed("unified address: receiver 0x%02x has length %d, want %d",
					r.Typecode, len(r.Data), want)
			}
			known++
		}
		if r.Typecode == TypecodeP2PKH || r.Typecode == TypecodeP2SH {
			transparent++
		}
	}
	// At most one transparent receiver: P2PKH and P2SH are alternatives for
	// the same pool, never companions.
	if transparent > 1 {
		return nil, malformed("unified address: more than one transparent receiver")
	}
	if known == 0 {
		return nil, malformed("unified address: no known receivers")
	}
	if size < f4MinLen || size > f4MaxLen {
		return nil, malformed("unified address: container size %d out of range", size)
	}
	return &Unified{Net: network, Receivers: items}, nil
}

func parseUnified(lower, hrp string, network Network) (Address, error) {
	actual, _ := unifiedNetwork(hrp)
	if actual != network {
		return nil, &NetworkMismatchError{Expected: network, Actual: actual}
	}

	// Unified encodings routinely exceed BIP-173's 90-character limit, so
	// the length-capped decoders cannot be used here.
	decodedHRP, data, version, err := bech32.DecodeNoLimitWithVersion(lower)
	if err != nil {
		return nil, malformed("unified address: %v", err)
	}
	if version != bech32.VersionM {
		return nil, malformed("unified address: not bech32m")
	}
	if decodedHRP != hrp {
		return nil, malformed("unified address: hrp mismatch")
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, malformed("unified address: %v", err)
	}
	if err := f4JumbleInverse(raw); err != nil {
		return nil, err
	}

	if len(raw) < 16 {
		return nil, malformed("unified address: container too short")
	}
	body, padding := raw[:len(raw)-16], raw[len(raw)-16:]
	want := hrpPadding(hrp)
	for i := range padding {
		if padding[i] != want[i] {
			return nil, malformed("unified address: invalid padding")
		}
	}

	items, err := parseContainer(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, malformed("unified address: zero receivers")
	}
	return validateUnified(network, items)
}

// parseContainer reads the typecode/length/value sequence of a Unified
// Address body.
func parseContainer(body []byte) ([]Receiver, error) {
	var items []Receiver
	for len(body) > 0 {
		typecode, rest, err := readCompactSize(body)
		if err != nil {
			return nil, err
		}
		length, rest, err := readCompactSize(rest)
		if err != nil {
			return nil, err
		}
		if uint64(len(rest)) < length {
			return nil, malformed("unified address: truncated receiver 0x%02x", typecode)
		}
		data := make([]byte, length)
		copy(data, rest[:length])
		items = append(items, Receiver{Typecode: typecode, Data: data})
		body = rest[length:]
	}
	return items, nil
}

// hrpPadding is the HRP zero-padded to 16 bytes, appended to the container
// before jumbling.
func hrpPadding(hrp string) [16]byte {
	var pad [16]byte
	copy(pad[:], hrp)
	return pad
}

func appendCompactSize(dst []byte, v uint64) []byte {
	switch {
	case v < 253:
		return append(dst, byte(v))
	case v <= 0xFFFF:
		dst = append(dst, 253)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case v <= 0xFFFFFFFF:
		dst = append(dst, 254)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, 255)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

func readCompactSize(b []byte) (uint64, []byte, error) {
	if len(b) == 0 {
		return 0, nil, malformed("unified address: truncated container")
	}
	switch tag := b[0]; {
	case tag < 253:
		return uint64(tag), b[1:], nil
	case tag == 253:
		if len(b) < 3 {
			return 0, nil, malformed("unified address: truncated container")
		}
		v := uint64(binary.LittleEndian.Uint16(b[1:3]))
		if v < 253 {
			return 0, nil, malformed("unified address: non-canonical compact size")
		}
		return v, b[3:], nil
	case tag == 254:
		if len(b) < 5 {
			return 0, nil, malformed("unified address: truncated container")
		}
		v := uint64(binary.LittleEndian.Uint32(b[1:5]))
		if v <= 0xFFFF {
			return 0, nil, malformed("unified address: non-canonical compact size")
		}
		return v, b[5:], nil
	default:
		if len(b) < 9 {
			return 0, nil, malformed("unified address: truncated container")
		}
		v := binary.LittleEndian.Uint64(b[1:9])
		if v <= 0xFFFFFFFF {
			return 0, nil, malformed("unified address: non-canonical compact size")
		}
		return v, b[9:], nil
	}
}

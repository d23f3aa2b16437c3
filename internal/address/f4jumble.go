package address

import (
	"github.com/dchest/blake2b"
)

// F4Jumble (ZIP-316) is an unkeyed 4-round Feistel construction over BLAKE2b
// that scrambles a Unified Address payload before bech32m encoding, so that
// receiver boundaries are not visible in the encoded text. It is its own
// domain: inputs must be between 48 and 4194368 bytes.
const (
	f4MinLen = 48
	f4MaxLen = 4194368
)

func f4LeftLen(n int) int {
	if half := n / 2; half < 64 {
		return half
	}
	return 64
}

// f4G expands left into len(dst) bytes using successive personalized
// BLAKE2b-512 outputs, XORing into dst.
func f4G(round byte, left, dst []byte) {
	var personal [16]byte
	copy(personal[:], "UA_F4Jumble_G")
	personal[13] = round

	for j := 0; j*64 < len(dst); j++ {
		personal[14] = byte(j)
		personal[15] = byte(j >> 8)

		h, err := blake2b.New(&blake2b.Config{Size: 64, Person: personal[:]})
		if err != nil {
			panic(err) // static config, cannot fail
		}
		h.Write(left)
		block := h.Sum(nil)

		chunk := dst[j*64:]
		if len(chunk) > 64 {
			chunk = chunk[:64]
		}
		for i := range chunk {
			chunk[i] ^= block[i]
		}
	}
}

// f4H compresses right into len(dst) bytes with a single personalized BLAKE2b
// whose digest size equals the left half, XORing into dst.
func f4H(round byte, right, dst []byte) {
	var personal [16]byte
	copy(personal[:], "UA_F4Jumble_H")
	personal[13] = round

	h, err := blake2b.New(&blake2b.Config{Size: uint8(len(dst)), Person: personal[:]})
	if err != nil {
		panic(err)
	}
	h.Write(right)
	block := h.Sum(nil)

	for i := range dst {
		dst[i] ^= block[i]
	}
}

// f4Jumble applies the forward transform in place.
func f4Jumble(m []byte) error {
	if len(m) < f4MinLen || len(m) > f4MaxLen {
		return malformed("f4jumble input length %d out of range", len(m))
	}
	left, right := m[:f4LeftLen(len(m))], m[f4LeftLen(len(m)):]

	f4G(0, left, right)
	f4H(0, right, left)
	f4G(1, left, right)
	f4H(1, right, left)
	return nil
}

// f4JumbleInverse reverses f4Jumble in place.
func f4JumbleInverse(m []byte) error {
	if len(m) < f4MinLen || len(m) > f4MaxLen {
		return malformed("f4jumble input length %d out of range", len(m))
	}
	left, right := m[:f4LeftLen(len(m))], m[f4LeftLen(len(m)):]

	f4H(1, right, left)
	f4G(1, left, right)
	f4H(0, right, left)
	f4G(0, left, right)
	return nil
}

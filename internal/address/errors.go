package address

import (
	"errors"
	"fmt"
)

// ErrMalformed is the base error for any address that fails to decode:
// bad checksum, wrong length, truncated payload, unknown prefix.
var ErrMalformed = errors.New("malformed address")

// NetworkMismatchError reports an address that decoded cleanly but belongs to
// a different network than the caller required.
type NetworkMismatchError struct {
	Expected Network
	Actual   Network
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("address network mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// UnsupportedReceiverError reports a Unified Address carrying a
// MUST-understand item this parser does not implement.
type UnsupportedReceiverError struct {
	Typecode uint64
}

func (e *UnsupportedReceiverError) Error() string {
	return fmt.Sprintf("unified address: unsupported must-understand typecode 0x%02x", e.Typecode)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

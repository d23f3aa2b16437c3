package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRequest is returned when a request is built with no payments.
	ErrEmptyRequest = errors.New("payment request has no payments")
	// ErrAmountOverflow is returned when the aggregate of amounts and fee
	// exceeds the zatoshi supply.
	ErrAmountOverflow = errors.New("payment request total exceeds the ZEC supply")
)

// InvalidAmountError reports a payment with a zero amount or one above the
// supply cap.
type InvalidAmountError struct {
	Index  int
	Amount uint64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("payment %d has invalid amount %d zatoshi", e.Index, e.Amount)
}

// MemoTooLongError reports a memo above the 512-byte protocol limit.
type MemoTooLongError struct {
	Index int
	Size  int
}

func (e *MemoTooLongError) Error() string {
	return fmt.Sprintf("payment %d memo is %d bytes, limit is %d", e.Index, e.Size, MaxMemoSize)
}

// MemoNotAllowedError reports a memo attached to a payment whose recipient
// has no shielded receiver; memos exist only inside shielded outputs.
type MemoNotAllowedError struct {
	Index int
}

func (e *MemoNotAllowedError) Error() string {
	return fmt.Sprintf("payment %d carries a memo but its recipient is transparent-only", e.Index)
}

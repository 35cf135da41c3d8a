package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateReceipt is returned when the receipt was already redeemed.
	ErrDuplicateReceipt = errors.New("ledger: receipt already redeemed")
	// ErrReceiptTaken is returned when another user redeemed the receipt.
	// It matches ErrDuplicateReceipt via errors.Is.
	ErrReceiptTaken = fmt.Errorf("%w by another user", ErrDuplicateReceipt)
	// ErrUnknownUser is returned when the recipient has no user record.
	ErrUnknownUser = errors.New("ledger: unknown user")
	// ErrInvalidReceipt is returned for an empty receipt number or negative amount.
	ErrInvalidReceipt = errors.New("ledger: invalid receipt")
	// ErrTooManyTickets is returned when the amount buys more than the
	// per-receipt cap. It matches ErrInvalidReceipt via errors.Is.
	ErrTooManyTickets = fmt.Errorf("%w: ticket cap exceeded", ErrInvalidReceipt)
)

// PersistenceError wraps storage failures. Callers treat it as "try again later".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code is used as err_code in handler logs.
func (e *PersistenceError) Code() string { return "persistence" }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

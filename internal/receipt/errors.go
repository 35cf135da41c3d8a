package receipt

import (
	"errors"
	"fmt"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("receipt: document cannot be parsed")

// FormatError reports a document that is not a well-formed PDF. It means
// "cannot be parsed"; a valid PDF without text is not a FormatError.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("receipt: %s: %v", e.Reason, e.Err)
	}
	return "receipt: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFormat) true for any FormatError.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Code is used as err_code in handler logs.
func (e *FormatError) Code() string { return "extraction_failed" }

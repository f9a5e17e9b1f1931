package security

import (
	"errors"
	"fmt"
)

// ErrRejected marks a denial from either validation stage. The error text
// carries the operator-facing reason and is safe to surface verbatim.
var ErrRejected = errors.New("rejected by security validation")

// ErrTimedOut marks an operation that exceeded its wall-clock budget.
var ErrTimedOut = errors.New("operation timed out")

type deniedError struct {
	msg string
}

func (e *deniedError) Error() string { return e.msg }
func (e *deniedError) Unwrap() error { return ErrRejected }

// reject builds a denial whose message is exactly the formatted text.
func reject(format string, args ...any) error {
	return &deniedError{msg: fmt.Sprintf(format, args...)}
}

type expiredError struct {
	msg string
}

func (e *expiredError) Error() string { return e.msg }
func (e *expiredError) Unwrap() error { return ErrTimedOut }
func (e *expiredError) Timeout() bool { return true }

// expired builds a timeout error whose message is exactly the formatted text.
func expired(format string, args ...any) error {
	return &expiredError{msg: fmt.Sprintf(format, args...)}
}

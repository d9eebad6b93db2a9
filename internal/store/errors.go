package store

import (
	"errors"
	"fmt"
)

// Op names the store operation that failed.
type Op string

const (
	OpList   Op = "list"
	OpExists Op = "exists"
	OpFetch  Op = "fetch"
	OpStore  Op = "store"
	OpDelete Op = "delete"
)

// Error tags a store failure with the operation and key it belongs to,
// so callers can report which stage of a transfer went wrong.
type Error struct {
	Op  Op
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as an operation-tagged store error.
func NewError(op Op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

// OpOf extracts the failing operation from err if it is, or wraps, a
// store Error.
func OpOf(err error) (Op, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Op, true
	}
	return "", false
}

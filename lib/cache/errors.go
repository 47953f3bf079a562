package cache

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrEmptyKey is returned for operations with an empty key
	ErrEmptyKey = errors.New("cache key must not be empty")
	// ErrClosed is returned for operations on a closed cache
	ErrClosed = errors.New("cache is closed")
	// ErrAlreadyOpen is returned when the path changes after the store was opened
	ErrAlreadyOpen = errors.New("cache store is already open")
)

// Error is returned by all cache operations that fail. Op names the
// operation, Key the affected key (empty for Open, Flush, Info, Close).
type Error struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("CacheError (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("CacheError (%s %q): %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

package dispatch

import (
	"fmt"

	"github.com/ValentinKolb/logicbridge/lib/envelope"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type Code uint8

const (
	CodeMalformedRequest Code = iota + 1 // 1: Request bytes are not a valid envelope of the expected kind.
	CodeHandlerFailure                   // 2: The handler returned an error or its response could not be encoded.
	CodeHandlerPanic                     // 3: The handler panicked, the panic was recovered.
	CodeNoHandler                        // 4: The case is valid but no handler is registered for it.
)

func (c Code) String() string {
	switch c {
	case CodeMalformedRequest:
		return "MalformedRequest"
	case CodeHandlerFailure:
		return "HandlerFailure"
	case CodeHandlerPanic:
		return "HandlerPanic"
	case CodeNoHandler:
		return "NoHandler"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is returned for every failed call. Its message is what the host
// receives as error string.
type Error struct {
	Code Code          // The return code
	Case envelope.Case // The case of the request (CaseNone if it did not decode)
	Msg  string        // The error message
	Err  error         // The cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Case == envelope.CaseNone {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Case, e.Msg)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code Code, c envelope.Case, msg string) *Error {
	return &Error{
		Code: code,
		Case: c,
		Msg:  msg,
	}
}

func wrapError(code Code, c envelope.Case, err error) *Error {
	return &Error{
		Code: code,
		Case: c,
		Msg:  err.Error(),
		Err:  err,
	}
}

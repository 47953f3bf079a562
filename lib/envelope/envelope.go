package envelope

import (
	"errors"
)

// ErrMalformed is wrapped by every decode error: the bytes do not form an
// envelope with exactly one known case of the expected kind.
var ErrMalformed = errors.New("malformed envelope")

// Request is the envelope sent by the host. Payload is the encoded request
// message of the active case, its schema is owned by the handler.
type Request struct {
	Kind    Kind   `json:"-"`
	Case    Case   `json:"case"`
	Payload []byte `json:"payload,omitempty"`
}

// NewRequest creates a new request envelope
func NewRequest(kind Kind, c Case, payload []byte) Request {
	return Request{Kind: kind, Case: c, Payload: payload}
}

// Response is the envelope returned to the host. It carries the same case
// as the request it answers.
type Response struct {
	Kind    Kind   `json:"-"`
	Case    Case   `json:"case"`
	Payload []byte `json:"payload,omitempty"`
}

// NewResponse creates the response envelope answering req
func NewResponse(req Request, payload []byte) Response {
	return Response{Kind: req.Kind, Case: req.Case, Payload: payload}
}

// ICodec is the interface for all envelope codecs
type ICodec interface {
	// EncodeRequest serializes a request envelope
	EncodeRequest(req Request) ([]byte, error)
	// DecodeRequest deserializes a request of the given kind.
	// Errors wrap ErrMalformed.
	DecodeRequest(kind Kind, b []byte) (Request, error)
	// EncodeResponse serializes a response envelope
	EncodeResponse(resp Response) ([]byte, error)
	// DecodeResponse deserializes a response of the given kind.
	// Errors wrap ErrMalformed.
	DecodeResponse(kind Kind, b []byte) (Response, error)
}

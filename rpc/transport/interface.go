package transport

import (
	"github.com/ValentinKolb/logicbridge/rpc/common"
)

// Mode selects the entry point a request is dispatched to
type Mode uint8

const (
	ModeSync  Mode = 1
	ModeAsync Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// RemoteError carries the error string of a failed call back to the client
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string {
	return e.Msg
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// Reply sends the result of one request back to the client. It must be
// called exactly once per request and may be called from any goroutine.
type Reply func(resp []byte, err error)

// ServerHandleFunc is called by a server transport for every request. req
// is only valid until the function returns, the result may be delivered
// later through reply.
type ServerHandleFunc func(mode Mode, req []byte, reply Reply)

// IRPCServerTransport is the interface for the server side of the transport
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for incoming requests
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts accepting connections and blocks until Close is called
	Listen(config common.ServerConfig) error
	// Close stops accepting connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side of the transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request and waits for its response. A failed remote call
	// is returned as *RemoteError.
	Send(mode Mode, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}

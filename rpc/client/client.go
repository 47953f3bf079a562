package client

import (
	"bytes"
	"context"
	"sync"

	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/lib/dispatch"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// ErrClosed is returned by calls on a closed RemoteCaller
var ErrClosed = errors.New("remote caller is closed")

// RemoteCaller executes envelopes on a dev host server. It implements
// bridge.ICaller, so hosts can switch between the linked-in bridge and a
// remote one without other changes.
type RemoteCaller struct {
	transport transport.IRPCClientTransport
	wg        conc.WaitGroup
	mu        sync.RWMutex // read-held while calls are started, write-held by Close
	closed    bool
}

var _ bridge.ICaller = (*RemoteCaller)(nil)

// NewRemoteCaller connects t with config and returns a caller using it
func NewRemoteCaller(config common.ClientConfig, t transport.IRPCClientTransport) (*RemoteCaller, error) {
	if err := t.Connect(config); err != nil {
		return nil, errors.Wrapf(err, "connect to %s", config.Endpoint)
	}
	return &RemoteCaller{transport: t}, nil
}

// Dial creates the transport named in config and connects it
func Dial(config common.ClientConfig) (*RemoteCaller, error) {
	t, err := NewTransport(config)
	if err != nil {
		return nil, err
	}
	return NewRemoteCaller(config, t)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see bridge.ICaller)
// --------------------------------------------------------------------------

func (c *RemoteCaller) Call(ctx context.Context, req []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	return sendWithContext(ctx, c.transport, transport.ModeSync, req)
}

func (c *RemoteCaller) CallAsync(req []byte, done dispatch.Completion) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		done(nil, ErrClosed)
		return
	}
	defer c.mu.RUnlock()

	data := bytes.Clone(req)
	c.wg.Go(func() {
		var (
			resp []byte
			err  error
		)
		if r := panics.Try(func() {
			resp, err = c.transport.Send(transport.ModeAsync, data)
		}); r != nil {
			err = r.AsError()
		}
		if r := panics.Try(func() { done(resp, err) }); r != nil {
			Logger.Errorf("async completion panicked: %v", r.Value)
		}
	})
}

// Close waits for running calls and outstanding async calls and closes the
// transport. Calls started after Close fail with ErrClosed.
func (c *RemoteCaller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	return c.transport.Close()
}

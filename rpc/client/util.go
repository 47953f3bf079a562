package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/ValentinKolb/logicbridge/rpc/transport/tcp"
	"github.com/ValentinKolb/logicbridge/rpc/transport/unix"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// NewTransport returns an unconnected client transport for the socket type
// named in config.Transport ("unix" or "tcp")
func NewTransport(config common.ClientConfig) (transport.IRPCClientTransport, error) {
	switch config.Transport {
	case "unix", "":
		return unix.NewUnixClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", config.Transport)
	}
}

// sendWithContext sends a request and gives up waiting when ctx is done.
// The request itself is not canceled.
func sendWithContext(ctx context.Context, t transport.IRPCClientTransport, mode transport.Mode, req []byte) ([]byte, error) {
	if ctx.Done() == nil {
		return t.Send(mode, req)
	}

	type result struct {
		resp []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := t.Send(mode, req)
		ch <- result{resp, err}
	}()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/server"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/ValentinKolb/logicbridge/rpc/transport/unix"
	"github.com/cockroachdb/pebble/vfs"
)

var wire = envelope.NewWireCodec()

// newRemote starts a dev host server backed by an in-memory bridge and
// returns a caller connected to it
func newRemote(t *testing.T) *RemoteCaller {
	t.Helper()

	dir, err := os.MkdirTemp("", "lb")
	if err != nil {
		t.Fatal(err)
	}
	socket := filepath.Join(dir, "logic.sock")

	b := bridge.New(bridge.Config{Cache: cache.Config{FS: vfs.NewMem()}, MaxConcurrency: 4})
	s := server.NewRPCServer(
		common.ServerConfig{Endpoint: socket},
		unix.NewUnixServerTransport(0, 8),
		b,
	)
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	config := common.ClientConfig{Transport: "unix", Endpoint: socket, TimeoutSecond: 5, RetryCount: 2}
	var caller *RemoteCaller
	deadline := time.Now().Add(2 * time.Second)
	for {
		if caller, err = Dial(config); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to dial: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		caller.Close()
		s.Close()
		<-done
		b.Close()
		os.RemoveAll(dir)
	})
	return caller
}

func encode(t *testing.T, kind envelope.Kind, c envelope.Case, payload string) []byte {
	t.Helper()
	data, err := wire.EncodeRequest(envelope.NewRequest(kind, c, []byte(payload)))
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	return data
}

func TestRemoteEcho(t *testing.T) {
	caller := newRemote(t)

	resp, err := caller.Call(context.Background(), encode(t, envelope.KindSync, envelope.CaseEcho, "ping"))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	decoded, err := wire.DecodeResponse(envelope.KindSync, resp)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.Case != envelope.CaseEcho || string(decoded.Payload) != "ping" {
		t.Errorf("Unexpected response %+v", decoded)
	}
}

func TestRemoteMalformed(t *testing.T) {
	caller := newRemote(t)

	_, err := caller.Call(context.Background(), []byte{0xff, 0xff})
	var remote *transport.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("Expected a RemoteError, got %v", err)
	}
	if !strings.Contains(remote.Msg, "MalformedRequest") {
		t.Errorf("Expected a malformed request error, got %q", remote.Msg)
	}
}

func TestRemoteAsync(t *testing.T) {
	caller := newRemote(t)

	const calls = 20
	var wg sync.WaitGroup
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		payload := strings.Repeat("x", i)
		caller.CallAsync(encode(t, envelope.KindAsync, envelope.CaseEcho, payload), func(resp []byte, err error) {
			defer wg.Done()
			if err != nil {
				t.Errorf("Async call failed: %v", err)
				return
			}
			decoded, err := wire.DecodeResponse(envelope.KindAsync, resp)
			if err != nil {
				t.Errorf("Failed to decode: %v", err)
				return
			}
			if string(decoded.Payload) != payload {
				t.Errorf("Expected %q, got %q", payload, decoded.Payload)
			}
		})
	}
	wg.Wait()
}

func TestClosedCaller(t *testing.T) {
	caller := newRemote(t)
	if err := caller.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := caller.Call(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}

	got := make(chan error, 1)
	caller.CallAsync(nil, func(_ []byte, err error) { got <- err })
	if err := <-got; !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// TestCloseDuringAsync tests that async calls racing with Close complete
// exactly once, either with a response or with ErrClosed
func TestCloseDuringAsync(t *testing.T) {
	caller := newRemote(t)
	const calls = 32
	req := encode(t, envelope.KindAsync, envelope.CaseEcho, "x")

	results := make(chan error, calls)
	var started sync.WaitGroup
	for i := 0; i < calls; i++ {
		started.Add(1)
		go func() {
			defer started.Done()
			caller.CallAsync(req, func(_ []byte, err error) {
				results <- err
			})
		}()
	}

	if err := caller.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	started.Wait()

	for i := 0; i < calls; i++ {
		select {
		case err := <-results:
			if err != nil && !errors.Is(err, ErrClosed) {
				t.Errorf("Expected success or ErrClosed, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d completions arrived", i, calls)
		}
	}
	select {
	case err := <-results:
		t.Errorf("completion delivered twice: %v", err)
	default:
	}
}

func TestNewTransport(t *testing.T) {
	for _, name := range []string{"", "unix", "tcp"} {
		if _, err := NewTransport(common.ClientConfig{Transport: name}); err != nil {
			t.Errorf("Transport %q: %v", name, err)
		}
	}
	if _, err := NewTransport(common.ClientConfig{Transport: "carrier-pigeon"}); err == nil {
		t.Error("Expected an error for an unknown transport")
	}
}

package server

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/dispatch"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
)

// fakeCaller records calls and answers with fixed results
type fakeCaller struct {
	syncCalls  atomic.Int32
	asyncCalls atomic.Int32
	resp       []byte
	err        error
}

func (f *fakeCaller) Call(_ context.Context, req []byte) ([]byte, error) {
	f.syncCalls.Add(1)
	return f.resp, f.err
}

func (f *fakeCaller) CallAsync(req []byte, done dispatch.Completion) {
	f.asyncCalls.Add(1)
	go done(f.resp, f.err)
}

func (f *fakeCaller) Close() error { return nil }

// capture returns a reply that stores its arguments and signals on done
func capture() (transport.Reply, <-chan [2]any) {
	ch := make(chan [2]any, 2)
	return func(resp []byte, err error) {
		ch <- [2]any{resp, err}
	}, ch
}

func TestHandleRoutesModes(t *testing.T) {
	tests := map[string]struct {
		mode      transport.Mode
		wantSync  int32
		wantAsync int32
		wantErr   bool
	}{
		"Sync":    {mode: transport.ModeSync, wantSync: 1},
		"Async":   {mode: transport.ModeAsync, wantAsync: 1},
		"Unknown": {mode: transport.Mode(9), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			caller := &fakeCaller{resp: []byte("ok")}
			s := NewRPCServer(common.ServerConfig{TimeoutSecond: 1}, nil, caller)

			reply, got := capture()
			s.handle(tc.mode, []byte("req"), reply)
			res := <-got

			if caller.syncCalls.Load() != tc.wantSync || caller.asyncCalls.Load() != tc.wantAsync {
				t.Errorf("Expected %d sync and %d async calls, got %d and %d",
					tc.wantSync, tc.wantAsync, caller.syncCalls.Load(), caller.asyncCalls.Load())
			}
			err, _ := res[1].(error)
			if tc.wantErr {
				if err == nil {
					t.Error("Expected an error reply")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if resp, _ := res[0].([]byte); !bytes.Equal(resp, []byte("ok")) {
				t.Errorf("Expected ok, got %q", resp)
			}
		})
	}
}

func TestHandlePassesErrors(t *testing.T) {
	failure := errors.New("boom")
	for _, mode := range []transport.Mode{transport.ModeSync, transport.ModeAsync} {
		t.Run(mode.String(), func(t *testing.T) {
			s := NewRPCServer(common.ServerConfig{}, nil, &fakeCaller{err: failure})

			reply, got := capture()
			s.handle(mode, nil, reply)
			res := <-got

			if err, _ := res[1].(error); !errors.Is(err, failure) {
				t.Errorf("Expected %v, got %v", failure, res[1])
			}
		})
	}
}

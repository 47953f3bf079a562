//go:build cgo

package main

import (
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/ValentinKolb/logicbridge/lib/buffer"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
)

var wire = envelope.NewWireCodec()

func encode(t *testing.T, kind envelope.Kind, payload string) []byte {
	t.Helper()
	req, err := wire.EncodeRequest(envelope.NewRequest(kind, envelope.CaseEcho, []byte(payload)))
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	return req
}

func TestCallEcho(t *testing.T) {
	buf := call(encode(t, envelope.KindSync, "ping"))
	defer release(buf)

	if buf.IsError() {
		t.Fatalf("Unexpected error buffer: %s", buf.ErrorMessage())
	}
	resp, err := wire.DecodeResponse(envelope.KindSync, buf.Bytes())
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if string(resp.Payload) != "ping" {
		t.Errorf("Expected ping, got %q", resp.Payload)
	}
}

func TestCallMalformed(t *testing.T) {
	buf := call([]byte{0x01})
	defer release(buf)

	if !buf.IsError() || !buf.Valid() {
		t.Fatalf("Expected an error buffer, got %s", buf)
	}
	if !strings.Contains(buf.ErrorMessage(), "MalformedRequest") {
		t.Errorf("Unexpected message %q", buf.ErrorMessage())
	}
}

func TestCallAsync(t *testing.T) {
	const calls = 10

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []buffer.Buffer
	)
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		callAsync(encode(t, envelope.KindAsync, "pong"), func(buf buffer.Buffer) {
			defer wg.Done()
			mu.Lock()
			got = append(got, buf)
			mu.Unlock()
		})
	}
	wg.Wait()

	for _, buf := range got {
		if buf.IsError() {
			t.Errorf("Unexpected error buffer: %s", buf.ErrorMessage())
		} else if resp, err := wire.DecodeResponse(envelope.KindAsync, buf.Bytes()); err != nil || string(resp.Payload) != "pong" {
			t.Errorf("Unexpected response %+v (%v)", resp, err)
		}
		release(buf)
	}
}

func TestConversion(t *testing.T) {
	p := buffer.NewProtocol(cAllocator{})

	for name, buf := range map[string]buffer.Buffer{
		"Payload": p.FromBytes([]byte("data")),
		"Error":   p.FromError("failed"),
	} {
		t.Run(name, func(t *testing.T) {
			back := fromC(toC(buf))
			if back != buf {
				t.Errorf("Expected %s, got %s", buf, back)
			}
			p.Release(back)
		})
	}
}

func TestView(t *testing.T) {
	if v := view(nil, 0); v != nil {
		t.Errorf("Expected nil view, got %v", v)
	}
}

// exhaustedAllocator behaves like a C allocator whose malloc always fails
type exhaustedAllocator struct {
	cAllocator
}

func (exhaustedAllocator) Alloc(int) unsafe.Pointer { return nil }

func TestAllocationFailure(t *testing.T) {
	p := buffer.NewProtocol(exhaustedAllocator{})

	buf := p.FromBytes([]byte("data"))
	if !buf.Valid() || buf.Err != (cAllocator{}).StaticError() {
		t.Fatalf("Expected the static C error, got %s", buf)
	}
	if msg := buf.ErrorMessage(); msg != buffer.AllocFailureMessage {
		t.Errorf("Expected %q, got %q", buffer.AllocFailureMessage, msg)
	}

	// the same static string is skipped by every protocol over the C heap
	back := fromC(toC(buf))
	fallback.Release(back)
	p.Release(back)
}

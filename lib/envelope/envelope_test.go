package envelope

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"Wire": NewWireCodec,
	"JSON": NewJSONCodec,
}

// TestCodecRoundTrip tests every case of both kinds with every codec
func TestCodecRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			codec := factory()

			for _, kind := range []Kind{KindSync, KindAsync} {
				for _, c := range kind.Cases() {
					req := NewRequest(kind, c, []byte("payload-"+c.String()))

					data, err := codec.EncodeRequest(req)
					if err != nil {
						t.Errorf("failed to encode %s/%s: %v", kind, c, err)
						continue
					}

					got, err := codec.DecodeRequest(kind, data)
					if err != nil {
						t.Errorf("failed to decode %s/%s: %v", kind, c, err)
						continue
					}

					if got.Case != c || got.Kind != kind || !bytes.Equal(got.Payload, req.Payload) {
						t.Errorf("round trip mismatch:\nOriginal: %+v\nResult: %+v", req, got)
					}

					resp := NewResponse(got, []byte("answer"))
					data, err = codec.EncodeResponse(resp)
					if err != nil {
						t.Errorf("failed to encode response %s/%s: %v", kind, c, err)
						continue
					}
					gotResp, err := codec.DecodeResponse(kind, data)
					if err != nil {
						t.Errorf("failed to decode response %s/%s: %v", kind, c, err)
						continue
					}
					if gotResp.Case != c || string(gotResp.Payload) != "answer" {
						t.Errorf("response round trip mismatch: %+v", gotResp)
					}
				}
			}
		})
	}
}

// TestEchoEncoding tests the concrete echo scenario on the wire codec
func TestEchoEncoding(t *testing.T) {
	codec := NewWireCodec()

	data, err := codec.EncodeRequest(NewRequest(KindSync, CaseEcho, []byte("ping")))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// field 15, wire type 2 -> tag 0x7a, length 4
	want := []byte{0x7a, 0x04, 'p', 'i', 'n', 'g'}
	if !bytes.Equal(data, want) {
		t.Errorf("unexpected encoding %x, want %x", data, want)
	}
}

// TestDecodeMalformed tests that all malformed inputs produce ErrMalformed
func TestDecodeMalformed(t *testing.T) {
	codec := NewWireCodec()
	valid, _ := codec.EncodeRequest(NewRequest(KindAsync, CaseTopicList, []byte("abc")))

	tests := map[string][]byte{
		"empty":            {},
		"truncated":        valid[:len(valid)-1],
		"truncated tag":    {0x80},
		"field zero":       {0x02, 0x00},
		"only unknown":     protowire.AppendBytes(protowire.AppendTag(nil, 99, protowire.BytesType), []byte("x")),
		"wrong wire type":  protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 7),
		"unassigned field": protowire.AppendBytes(protowire.AppendTag(nil, 12, protowire.BytesType), nil),
		"garbage":          []byte("not an envelope at all"),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.DecodeRequest(KindAsync, data)
			if err == nil {
				t.Fatalf("expected decode error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error does not wrap ErrMalformed: %v", err)
			}
		})
	}
}

// TestDecodeSkipsUnknownFields tests forward compatibility with newer hosts
func TestDecodeSkipsUnknownFields(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 100, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)
	data = protowire.AppendTag(data, 15, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("ping"))
	data = protowire.AppendTag(data, 101, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("ignored"))

	req, err := NewWireCodec().DecodeRequest(KindSync, data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.Case != CaseEcho || string(req.Payload) != "ping" {
		t.Errorf("unexpected request %+v", req)
	}
}

// TestDecodeLastCaseWins tests protobuf oneof semantics for repeated members
func TestDecodeLastCaseWins(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("configure"))
	data = protowire.AppendTag(data, 3, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("auth"))

	req, err := NewWireCodec().DecodeRequest(KindSync, data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.Case != CaseAuth || string(req.Payload) != "auth" {
		t.Errorf("unexpected request %+v", req)
	}
}

// TestEncodeRejectsForeignCase tests that a case of the other kind cannot be encoded
func TestEncodeRejectsForeignCase(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			codec := factory()
			if _, err := codec.EncodeRequest(NewRequest(KindSync, CaseTopicList, nil)); err == nil {
				t.Errorf("expected error for async case on sync envelope")
			}
			if _, err := codec.EncodeRequest(NewRequest(KindAsync, CaseNone, nil)); err == nil {
				t.Errorf("expected error for envelope without case")
			}
		})
	}
}

// TestParseCase tests the name mapping of all cases
func TestParseCase(t *testing.T) {
	for c := CaseEcho; c < caseCount; c++ {
		parsed, err := ParseCase(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCase(%q) = %v, %v", c.String(), parsed, err)
		}
	}
	if _, err := ParseCase("none"); err == nil {
		t.Errorf("expected error for none")
	}
	if _, err := ParseCase("does_not_exist"); err == nil {
		t.Errorf("expected error for unknown case")
	}
}

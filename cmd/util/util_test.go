package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line longer than %d: %q", Wrap, line)
		}
	}
}

func TestParsePayload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "payload")
	if err := os.WriteFile(file, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		arg     string
		want    []byte
		wantErr bool
	}{
		"Text":   {arg: "ping", want: []byte("ping")},
		"Hex":    {arg: "hex:cafe", want: []byte{0xca, 0xfe}},
		"BadHex": {arg: "hex:xyz", wantErr: true},
		"File":   {arg: "@" + file, want: []byte{1, 2, 3}},
		"NoFile": {arg: "@" + file + ".missing", wantErr: true},
		"Empty":  {arg: "", want: []byte{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePayload(tc.arg)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q", tc.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFormatPayload(t *testing.T) {
	if got := FormatPayload([]byte("hello\n")); got != "hello\n" {
		t.Errorf("Expected text, got %q", got)
	}
	if got := FormatPayload([]byte{0x00, 0xff}); got != "hex:00ff" {
		t.Errorf("Expected hex, got %q", got)
	}
}

package stats

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrintFiltered(t *testing.T) {
	page := "logic_calls_total{mode=\"sync\",case=\"echo\"} 3\ngo_goroutines 12\n\nlogic_buffers_live 0\n"

	var out bytes.Buffer
	printFiltered(&out, page, "logic_")
	want := "logic_calls_total{mode=\"sync\",case=\"echo\"} 3\nlogic_buffers_live 0\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}

	out.Reset()
	printFiltered(&out, page, "")
	if strings.Count(out.String(), "\n") != 3 {
		t.Errorf("Expected all 3 metrics, got %q", out.String())
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("logic_buffers_live 2\n"))
	}))
	defer srv.Close()

	var sb strings.Builder
	if err := fetch(srv.URL, &sb); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if sb.String() != "logic_buffers_live 2\n" {
		t.Errorf("Unexpected page %q", sb.String())
	}

	if err := fetch(srv.URL+"/nothing", &sb); err == nil {
		t.Error("Expected an error for a missing page")
	}
}

package cache

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/db"
	"github.com/cockroachdb/pebble/vfs"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// testConfigs is a map of engine name to cache config
var testConfigs = map[string]func() Config{
	"Memory": func() Config { return Config{} },
	"Pebble": func() Config { return Config{Path: "cache", FS: vfs.NewMem()} },
}

func TestInsertReturnsPrevious(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			c := New(cfg())
			defer c.Close()

			prev, ok, err := c.Insert("k", []byte("v1"))
			if err != nil || ok || prev != nil {
				t.Fatalf("first insert: prev=%q ok=%v err=%v", prev, ok, err)
			}

			prev, ok, err = c.Insert("k", []byte("v2"))
			if err != nil || !ok || !bytes.Equal(prev, []byte("v1")) {
				t.Fatalf("second insert: prev=%q ok=%v err=%v", prev, ok, err)
			}

			value, ok, err := c.Get("k")
			if err != nil || !ok || !bytes.Equal(value, []byte("v2")) {
				t.Errorf("get: value=%q ok=%v err=%v", value, ok, err)
			}
		})
	}
}

func TestGetAbsent(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			c := New(cfg())
			defer c.Close()

			value, ok, err := c.Get("missing")
			if err != nil || ok || value != nil {
				t.Errorf("expected miss, got value=%q ok=%v err=%v", value, ok, err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	if _, _, err := c.Insert("k", []byte("v")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	removed, err := c.Delete("k")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := c.Get("k"); ok {
		t.Errorf("entry still present after delete")
	}
}

// TestInsertDetached tests that neither the inserted value nor the returned
// previous value share memory with the stored entry
func TestInsertDetached(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			c := New(cfg())
			defer c.Close()

			value := []byte("v1")
			if _, _, err := c.Insert("k", value); err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			value[0] = 'X'

			prev, ok, err := c.Insert("k", []byte("v2"))
			if err != nil || !ok || !bytes.Equal(prev, []byte("v1")) {
				t.Fatalf("second insert: prev=%q ok=%v err=%v", prev, ok, err)
			}
			prev[0] = 'X'

			got, ok, err := c.Get("k")
			if err != nil || !ok || !bytes.Equal(got, []byte("v2")) {
				t.Errorf("get: value=%q ok=%v err=%v", got, ok, err)
			}
		})
	}
}

// TestCloseWhileInUse tests that Close waits for running operations and
// that operations started afterwards fail with ErrClosed
func TestCloseWhileInUse(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			c := New(cfg())
			if _, _, err := c.Insert("warmup", []byte("v")); err != nil {
				t.Fatalf("insert failed: %v", err)
			}

			const workers = 16
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					for j := 0; ; j++ {
						key := fmt.Sprintf("k-%d-%d", i, j)
						if _, _, err := c.Insert(key, []byte("value")); err != nil {
							errs <- err
							return
						}
						if _, _, err := c.Get(key); err != nil {
							errs <- err
							return
						}
					}
				}(i)
			}

			if err := c.Close(); err != nil {
				t.Errorf("close failed: %v", err)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if !errors.Is(err, ErrClosed) {
					t.Errorf("expected ErrClosed, got %v", err)
				}
			}
		})
	}
}

func TestEmptyKey(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	_, _, err := c.Insert("", []byte("v"))
	var cacheErr *Error
	if !errors.As(err, &cacheErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if _, _, err := c.Get(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("get: expected ErrEmptyKey, got %v", err)
	}
	if _, err := c.Delete(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("delete: expected ErrEmptyKey, got %v", err)
	}
}

func TestLazyOpen(t *testing.T) {
	fs := vfs.NewMem()
	c := New(Config{Path: "lazy", FS: fs})

	if _, err := fs.Stat("lazy"); err == nil {
		t.Fatalf("store opened before first use")
	}

	if _, _, err := c.Get("k"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := fs.Stat("lazy"); err != nil {
		t.Errorf("store not opened on first use: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if _, _, err := c.Get("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestCloseUnused(t *testing.T) {
	c := New(Config{Path: "unused", FS: vfs.NewMem()})
	if err := c.Close(); err != nil {
		t.Errorf("close of unused cache failed: %v", err)
	}
	if c.Opened() {
		t.Errorf("close opened the store")
	}
}

func TestSetPath(t *testing.T) {
	fs := vfs.NewMem()
	c := New(Config{FS: fs})
	defer c.Close()

	if err := c.SetPath("configured"); err != nil {
		t.Fatalf("set path before open failed: %v", err)
	}
	if _, _, err := c.Insert("k", []byte("v")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := fs.Stat("configured"); err != nil {
		t.Errorf("store not opened at configured path: %v", err)
	}

	if err := c.SetPath("configured"); err != nil {
		t.Errorf("setting the same path again should succeed: %v", err)
	}
	if err := c.SetPath("elsewhere"); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.Insert("a", []byte("1"))
	c.Insert("b", []byte("2"))

	info, err := c.Info()
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.DbType != db.ImplMemory || info.Entries != 2 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestMessages(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			c := New(cfg())
			defer c.Close()

			_, ok, err := InsertMsg(c, "topic", wrapperspb.String("first"))
			if err != nil || ok {
				t.Fatalf("first insert: ok=%v err=%v", ok, err)
			}

			prev, ok, err := InsertMsg(c, "topic", wrapperspb.String("second"))
			if err != nil || !ok || prev.GetValue() != "first" {
				t.Fatalf("second insert: prev=%v ok=%v err=%v", prev, ok, err)
			}

			got, ok, err := GetMsg[*wrapperspb.StringValue](c, "topic")
			if err != nil || !ok || got.GetValue() != "second" {
				t.Errorf("get: got=%v ok=%v err=%v", got, ok, err)
			}
		})
	}
}

func TestUndecodableIsMiss(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	// a truncated varint tag never decodes
	if _, _, err := c.Insert("broken", []byte{0xff}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	msg, ok, err := GetMsg[*wrapperspb.StringValue](c, "broken")
	if err != nil {
		t.Fatalf("expected miss without error, got %v", err)
	}
	if ok || msg != nil {
		t.Errorf("expected miss, got %v", msg)
	}

	prev, ok, err := InsertMsg(c, "broken", wrapperspb.String("fixed"))
	if err != nil || ok || prev != nil {
		t.Errorf("undecodable previous value should read as absent: prev=%v ok=%v err=%v", prev, ok, err)
	}
}

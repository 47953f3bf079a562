package common

import (
	"strings"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]struct {
		want    logger.LogLevel
		wantErr bool
	}{
		"debug":   {want: logger.DEBUG},
		"INFO":    {want: logger.INFO},
		"":        {want: logger.INFO},
		"warn":    {want: logger.WARNING},
		"warning": {want: logger.WARNING},
		"error":   {want: logger.ERROR},
		"verbose": {want: logger.INFO, wantErr: true},
	}

	for level, tc := range tests {
		t.Run(level, func(t *testing.T) {
			got, err := ParseLogLevel(level)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Unexpected error state: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	InitLoggers(DefaultBridgeConfig())

	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel failed: %v", err)
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
	_ = SetLogLevel("info")
}

func TestBridgeConfig(t *testing.T) {
	config := DefaultBridgeConfig()
	config.CachePath = "/tmp/logic"

	cacheConfig := config.CacheConfig()
	if cacheConfig.Path != "/tmp/logic" {
		t.Errorf("Unexpected path %q", cacheConfig.Path)
	}
	if cacheConfig.CapacityBytes != DefaultCacheCapacityMB*1024*1024 {
		t.Errorf("Unexpected capacity %d", cacheConfig.CapacityBytes)
	}
	if cacheConfig.FlushInterval != time.Second {
		t.Errorf("Unexpected flush interval %s", cacheConfig.FlushInterval)
	}

	s := config.String()
	for _, want := range []string{"CACHE", "/tmp/logic", "unlimited", "info"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %q", want, s)
		}
	}
}

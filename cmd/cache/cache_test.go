package cache

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// execute runs a cache sub command against the store in dir
func execute(t *testing.T, dir string, cmd *cobra.Command, args ...string) string {
	t.Helper()
	viper.Set(common.KeyCachePath, dir)
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, args); err != nil {
		t.Fatalf("%s failed: %v", cmd.Name(), err)
	}
	return out.String()
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()

	if out := execute(t, dir, getCmd, "k"); !strings.Contains(out, "not found") {
		t.Errorf("Expected miss, got %q", out)
	}
	if out := execute(t, dir, insertCmd, "k", "v1"); !strings.Contains(out, "inserted") {
		t.Errorf("Expected insert, got %q", out)
	}
	if out := execute(t, dir, insertCmd, "k", "v2"); !strings.Contains(out, "replaced: v1") {
		t.Errorf("Expected replace, got %q", out)
	}

	// every command reopens the store
	if out := execute(t, dir, getCmd, "k"); strings.TrimSpace(out) != "v2" {
		t.Errorf("Expected v2, got %q", out)
	}
	if out := execute(t, dir, infoCmd); !strings.Contains(out, dir) {
		t.Errorf("Expected path in info, got %q", out)
	}
	if out := execute(t, dir, deleteCmd, "k"); !strings.Contains(out, "deleted") {
		t.Errorf("Expected delete, got %q", out)
	}
	if out := execute(t, dir, deleteCmd, "k"); !strings.Contains(out, "not found") {
		t.Errorf("Expected miss, got %q", out)
	}
}

package util

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/rpc/client"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Flags
// --------------------------------------------------------------------------

// SetupBridgeFlags adds the flags of common.BridgeConfig to a command
func SetupBridgeFlags(cmd *cobra.Command) {
	defaults := common.DefaultBridgeConfig()
	flags := cmd.PersistentFlags()

	flags.String(common.KeyCachePath, "", WrapString("Directory of the cache store. Empty keeps the cache in memory"))
	flags.Int(common.KeyCacheCapacityMB, defaults.CacheCapacityMB, WrapString("Block cache size of the cache store in MB"))
	flags.Int(common.KeyFlushIntervalMs, defaults.FlushIntervalMs, WrapString("Interval in ms in which cache writes are made durable"))
	flags.Int(common.KeyMaxConcurrency, 0, WrapString("Max. number of async calls running at once (0 = unlimited)"))
	flags.Bool(common.KeyTrackBuffers, false, WrapString("Track buffer allocations to find leaks"))
	flags.String(common.KeyLogLevel, defaults.LogLevel, WrapString("Log level (debug, info, warn, error)"))
}

// SetupRPCClientFlags adds the flags needed to reach a dev host server
func SetupRPCClientFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	key := "remote"
	flags.String(key, "", WrapString("Endpoint of a dev host server (e.g. /tmp/logic.sock or localhost:7070). Without it the bridge runs in-process"))
	key = "transport"
	flags.String(key, "unix", WrapString("Socket type of the remote endpoint (unix, tcp)"))
	key = "timeout"
	flags.Int64(key, 10, WrapString("Timeout in seconds of a remote call"))
	key = "connections"
	flags.Int(key, 1, WrapString("Number of connections to the remote endpoint"))
	key = "retries"
	flags.Int(key, 3, WrapString("How many times to try sending a request"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Config
// --------------------------------------------------------------------------

// GetClientConfig reads the remote client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Transport:     viper.GetString("transport"),
		Endpoint:      viper.GetString("remote"),
		Connections:   viper.GetInt("connections"),
		TimeoutSecond: viper.GetInt64("timeout"),
		RetryCount:    viper.GetInt("retries"),
	}
}

// NewBridge creates an in-process bridge for config
func NewBridge(config common.BridgeConfig) *bridge.Bridge {
	return bridge.New(bridge.Config{
		Cache:          config.CacheConfig(),
		MaxConcurrency: config.MaxConcurrency,
		TrackBuffers:   config.TrackBuffers,
	}, bridge.WithLogLevelHook(common.SetLogLevel))
}

// NewCaller returns a remote caller if --remote is set and an in-process
// bridge otherwise
func NewCaller() (bridge.ICaller, error) {
	if viper.GetString("remote") != "" {
		return client.Dial(GetClientConfig())
	}
	return NewBridge(common.BridgeConfigFromViper()), nil
}

// --------------------------------------------------------------------------
// Payloads
// --------------------------------------------------------------------------

// ParsePayload converts a payload argument to bytes. Supported forms are
// "hex:<hex digits>", "@<file>" and plain text.
func ParsePayload(arg string) ([]byte, error) {
	switch {
	case strings.HasPrefix(arg, "hex:"):
		b, err := hex.DecodeString(strings.TrimPrefix(arg, "hex:"))
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %v", err)
		}
		return b, nil
	case strings.HasPrefix(arg, "@"):
		return os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		return []byte(arg), nil
	}
}

// FormatPayload renders bytes for the terminal: printable text as is,
// everything else as hex
func FormatPayload(b []byte) string {
	for _, r := range string(b) {
		if r == utf8.RuneError || (r < 0x20 && r != '\n' && r != '\t') {
			return "hex:" + hex.EncodeToString(b)
		}
	}
	return string(b)
}

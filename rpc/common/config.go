package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/cache"
)

// --------------------------------------------------------------------------
// Bridge configuration struct
// --------------------------------------------------------------------------

// Defaults mirror the values the mobile client shipped with.
const (
	DefaultCacheCapacityMB = 50
	DefaultFlushIntervalMs = 1000
	DefaultLogLevel        = "info"
)

// BridgeConfig holds the process wide settings of the bridge runtime.
type BridgeConfig struct {
	// CachePath is the directory of the embedded cache store.
	// An empty path selects the ephemeral in-memory engine.
	CachePath string

	// CacheCapacityMB is the in-memory block cache budget of the store
	CacheCapacityMB int

	// FlushIntervalMs is the period in which buffered writes are made durable
	FlushIntervalMs int

	// MaxConcurrency limits concurrently running async handlers (0 = unlimited)
	MaxConcurrency int

	// TrackBuffers enables allocation tracking for leak diagnosis
	TrackBuffers bool

	// Logging configuration
	LogLevel string
}

// DefaultBridgeConfig returns the configuration used when nothing is set
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		CacheCapacityMB: DefaultCacheCapacityMB,
		FlushIntervalMs: DefaultFlushIntervalMs,
		LogLevel:        DefaultLogLevel,
	}
}

// FlushInterval returns FlushIntervalMs as a duration
func (c *BridgeConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// CacheCapacityBytes returns CacheCapacityMB in bytes
func (c *BridgeConfig) CacheCapacityBytes() int64 {
	return int64(c.CacheCapacityMB) * 1024 * 1024
}

// CacheConfig returns the configuration of the cache store
func (c *BridgeConfig) CacheConfig() cache.Config {
	return cache.Config{
		Path:          c.CachePath,
		CapacityBytes: c.CacheCapacityBytes(),
		FlushInterval: c.FlushInterval(),
	}
}

// String returns a formatted string representation of the configuration
func (c *BridgeConfig) String() string {
	var sb strings.Builder
	c.writeTo(&sb)
	return sb.String()
}

func (c *BridgeConfig) writeTo(sb *strings.Builder) {
	addSection(sb, "Cache")
	if c.CachePath == "" {
		addField(sb, "Path", "(in-memory)")
	} else {
		addField(sb, "Path", c.CachePath)
	}
	addField(sb, "Capacity", fmt.Sprintf("%d MB", c.CacheCapacityMB))
	addField(sb, "Flush Interval", fmt.Sprintf("%d ms", c.FlushIntervalMs))

	addSection(sb, "Dispatch")
	if c.MaxConcurrency > 0 {
		addField(sb, "Max Concurrency", strconv.Itoa(c.MaxConcurrency))
	} else {
		addField(sb, "Max Concurrency", "unlimited")
	}
	addField(sb, "Track Buffers", strconv.FormatBool(c.TrackBuffers))

	addSection(sb, "Logging")
	addField(sb, "Log Level", c.LogLevel)
}

// --------------------------------------------------------------------------
// Dev host server configuration struct
// --------------------------------------------------------------------------

// ServerConfig configures the socket server that exposes a bridge to
// hosts running in another process (simulators, desktop harnesses).
type ServerConfig struct {
	Bridge BridgeConfig

	// Transport is the socket type ("tcp" or "unix")
	Transport string

	// Endpoint is the listen address (host:port for tcp, a path for unix)
	Endpoint string

	// WorkersPerConn limits the requests in flight per connection
	WorkersPerConn int

	// TimeoutSecond is the read/write deadline per frame (0 = none)
	TimeoutSecond int64

	// BufferSize is the size of pooled read buffers in bytes
	BufferSize int

	// MetricsEndpoint optionally serves prometheus metrics over http
	MetricsEndpoint string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection(&sb, "Dev Host Server")
	addField(&sb, "Transport", c.Transport)
	addField(&sb, "Endpoint", c.Endpoint)
	addField(&sb, "Workers per Connection", strconv.Itoa(c.WorkersPerConn))
	addField(&sb, "Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField(&sb, "Buffer Size", fmt.Sprintf("%d KB", c.BufferSize/1024))
	if c.MetricsEndpoint != "" {
		addField(&sb, "Metrics", c.MetricsEndpoint)
	}

	c.Bridge.writeTo(&sb)
	return sb.String()
}

// --------------------------------------------------------------------------
// Dev host client configuration struct
// --------------------------------------------------------------------------

// ClientConfig configures the client of the dev host server.
type ClientConfig struct {
	Transport     string // Socket type ("tcp" or "unix")
	Endpoint      string // Server address
	Connections   int    // Number of connections (0 = 1)
	TimeoutSecond int64  // Deadline per request (0 = none)
	RetryCount    int    // Attempts to send a request before giving up
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection(&sb, "Client Configuration")
	addField(&sb, "Transport", c.Transport)
	addField(&sb, "Endpoint", c.Endpoint)
	addField(&sb, "Connections", strconv.Itoa(c.Connections))
	addField(&sb, "Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField(&sb, "Retry Count", strconv.Itoa(c.RetryCount))

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func addSection(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
}

func addField(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

// Package server exposes a bridge over a socket transport. It lets a host
// that runs in another process than the bridge, e.g. an app in a
// simulator or a desktop harness, reach the same handlers the mobile
// build links in.
//
// Sync frames are executed on the transport goroutine through
// ICaller.Call. Async frames go through ICaller.CallAsync, the reply is
// written from the completion and may overtake later sync replies on the
// same connection.
//
// Usage Example:
//
//	b := bridge.New(bridge.Config{Cache: cache.Config{Path: "/tmp/logic"}})
//	defer b.Close()
//
//	s := server.NewRPCServer(
//	  common.ServerConfig{Endpoint: "/tmp/logic.sock", MetricsEndpoint: "localhost:9100"},
//	  unix.NewUnixServerTransport(0, 16),
//	  b,
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// When MetricsEndpoint is set, the call, cache and buffer metrics are
// served at /metrics in the prometheus text format.
package server

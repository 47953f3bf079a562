// Package transport defines the socket transport that lets a host running
// in another process (simulator, desktop harness, the CLI) talk to a
// bridge. The protocol mirrors the two entry points of the C boundary:
// every request is either sync or async, async responses may arrive in any
// order.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and hands them to a ServerHandleFunc.
//
//   - Mode: selects the sync or the async entry point.
//
// The base package implements the framing, the tcp and unix packages
// provide the socket specific connectors.
package transport

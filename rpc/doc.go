// Package rpc lets a host that does not link the bridge in reach it over a
// socket. Mobile builds call the C boundary directly, simulators and
// desktop harnesses talk to a dev host server instead.
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures, environment loading and logging.
//
//   - transport: Framed request/response transport over TCP or Unix sockets.
//
//   - server: Exposes a bridge.ICaller over a server transport, optionally
//     with a prometheus metrics endpoint.
//
//   - client: RemoteCaller, a bridge.ICaller backed by a client transport.
package rpc

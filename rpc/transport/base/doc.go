// Package base implements the socket transport of the dev host independent
// of the socket type. The tcp and unix packages plug in their connectors.
//
// Every message is one frame:
//
//	[1 byte mode | error flag][8 bytes request id][4 bytes length][payload]
//
// The mode is 1 for sync and 2 for async calls. The highest bit of the mode
// byte is set on responses whose payload is an error message instead of a
// response envelope. All integers are big endian.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: protocol specific dial and listen
//
//   - clientTransport: round-robin over a fixed number of connections and
//     correlation of responses by request id. Responses may arrive in any
//     order. A request is only retried when it could not be written, once
//     written it may already have run on the server.
//
//   - serverTransport: one goroutine per connection, which reads frames and
//     hands each to the registered handler on its own goroutine. At most
//     WorkersPerConn requests are in flight per connection. Read buffers
//     come from a sync.Pool.
package base

// Package tcp connects the base transport to TCP sockets. It is used when
// the dev host runs on another machine than the simulator, e.g. a phone on
// the local network talking to a workstation.
//
// Accepted connections get TCP_NODELAY and keep-alive. The default server
// buffer size is 512 KB.
package tcp

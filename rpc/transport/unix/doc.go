// Package unix connects the base transport to Unix domain sockets. This is
// the default for a dev host and a simulator on the same machine.
//
// Listen removes a stale socket file left behind by a previous run before
// binding. The default server buffer size is 64 KB.
package unix

// Package bridge composes the cache, the dispatcher and the buffer protocol
// into the object the host talks to.
//
// Call and CallAsync take and return envelope bytes and are used by Go
// callers (the CLI and the dev server). CallBuffer, CallAsyncBuffer and
// Release hand results over as buffer.Buffer values owned by the receiver
// and are used by the C exports.
//
// Every bridge answers the echo case on both entry points and the
// configure case on the sync entry point. All other cases are registered
// by the embedding program with WithHandlers.
package bridge

// Package client implements bridge.ICaller on top of a socket transport,
// talking to a server of the rpc/server package.
//
// Usage Example:
//
//	caller, err := client.Dial(common.ClientConfig{
//	  Transport:     "unix",
//	  Endpoint:      "/tmp/logic.sock",
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	})
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer caller.Close()
//
//	resp, err := caller.Call(ctx, req)
//
// Failed calls come back as *transport.RemoteError holding the message of
// the error the bridge returned. Calls are retried only if the request
// could not be written to the socket.
//
// Thread Safety:
//
//	RemoteCaller is safe for concurrent use. Async calls run on their own
//	goroutines, Close waits for them.
package client

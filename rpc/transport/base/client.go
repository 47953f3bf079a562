package base

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// errNotSent marks failures that happened before the request reached the
// server. Only those are retried, a request that was sent may have run.
var errNotSent = errors.New("request not sent")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection
type clientConnection struct {
	conn         net.Conn
	stopCh       chan struct{} // Close signal for the reader goroutine
	requestChans *xsync.MapOf[uint64, chan responseResult]
	connMu       sync.Mutex // Protects the connection itself
	parent       *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64 // Unique request IDs
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	t.config = config
	t.stopping.Store(false)
	t.closeConnections()

	numConns := max(config.Connections, 1)
	connections := make([]*clientConnection, 0, numConns)

	for i := 0; i < numConns; i++ {
		clientConn := &clientConnection{
			stopCh:       make(chan struct{}),
			requestChans: xsync.NewMapOf[uint64, chan responseResult](),
			parent:       t,
		}

		if err := clientConn.reconnect(); err != nil {
			Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", config.Endpoint, i+1, numConns, err)
			continue
		}
		connections = append(connections, clientConn)
		go clientConn.readResponses()
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to %s", config.Endpoint)
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected to %s with %d/%d connections using %s transport",
		config.Endpoint, len(connections), numConns, t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(mode transport.Mode, req []byte) ([]byte, error) {
	requestID := t.nextRequestID.Add(1)

	maxRetries := max(t.config.RetryCount, 1)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := conn.send(mode, requestID, req)
		if err == nil || !errors.Is(err, errNotSent) {
			return data, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i+1 < maxRetries {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}
	if len(t.connections) == 1 {
		return t.connections[0]
	}
	return t.connections[t.nextConnIndex.Add(1)%uint64(len(t.connections))]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	for _, c := range t.connections {
		close(c.stopCh)
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
	}
	t.connections = nil
}

// send writes one request and waits for its response
func (c *clientConnection) send(mode transport.Mode, requestID uint64, req []byte) ([]byte, error) {
	respCh := make(chan responseResult, 1)
	c.requestChans.Store(requestID, respCh)
	defer c.requestChans.Delete(requestID)

	var timeout time.Duration
	if c.parent.config.TimeoutSecond > 0 {
		timeout = time.Duration(c.parent.config.TimeoutSecond) * time.Second
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return nil, fmt.Errorf("%w: connection is closed", errNotSent)
	}
	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(c.conn, mode, false, requestID, req)
	c.connMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotSent, err)
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request %d timed out", requestID)
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests
func (c *clientConnection) readResponses() {
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		f, err := readFrame(conn, nil)
		if err != nil {
			if c.parent.stopping.Load() {
				return
			}

			// the connection is unusable, fail everything in flight
			c.requestChans.Range(func(id uint64, ch chan responseResult) bool {
				ch <- responseResult{nil, fmt.Errorf("error reading response: %v", err)}
				c.requestChans.Delete(id)
				return true
			})

			select {
			case <-c.stopCh:
				return
			default:
			}

			Logger.Warningf("Connection lost: %v, reconnecting", err)
			if err := c.reconnect(); err != nil {
				Logger.Errorf("Failed to reconnect: %v", err)
				return
			}
			continue
		}

		respCh, found := c.requestChans.LoadAndDelete(f.requestID)
		if !found {
			Logger.Warningf("Received response for unknown request ID %d", f.requestID)
			continue
		}
		if f.isErr {
			respCh <- responseResult{nil, &transport.RemoteError{Msg: string(f.data)}}
		} else {
			respCh <- responseResult{f.data, nil}
		}
	}
}

// reconnect establishes or restores the connection to the endpoint
func (c *clientConnection) reconnect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, err := c.parent.connector.Connect(c.parent.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.parent.config.Endpoint, err)
	}

	c.conn = conn
	return nil
}

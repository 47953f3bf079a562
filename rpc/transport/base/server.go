package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// IConnectionUpgrader is implemented by connectors that tune accepted
// connections (socket options and the like)
type IConnectionUpgrader interface {
	UpgradeConnection(conn net.Conn) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector         IServerConnector
	handler           transport.ServerHandleFunc
	config            common.ServerConfig
	listener          net.Listener
	listenerMu        sync.Mutex
	closed            atomic.Bool
	bufferPool        *sync.Pool
	maxWorkersPerConn int
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with a per-connection limit
// of requests in flight
func NewBaseServerTransport(connector IServerConnector, bufferSize int, maxWorkersPerConn int) transport.IRPCServerTransport {

	// minimum one worker per connection
	maxWorkersPerConn = max(maxWorkersPerConn, 1)

	return &serverTransport{
		connector:         connector,
		maxWorkersPerConn: maxWorkersPerConn,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listenerMu.Lock()
	t.listener = listener
	t.listenerMu.Unlock()

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Endpoint, t.maxWorkersPerConn)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				Logger.Infof("%s server on %s stopped", t.connector.GetName(), config.Endpoint)
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.closed.Store(true)
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection handles incoming requests for one connection
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	if u, ok := t.connector.(IConnectionUpgrader); ok {
		if err := u.UpgradeConnection(conn); err != nil {
			Logger.Warningf("Failed to upgrade %s connection: %v", t.connector.GetName(), err)
		}
	}

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// The buffered channel acts as a counting semaphore. A slot is held
	// from reading a request until its reply was written.
	workerSemaphore := make(chan struct{}, t.maxWorkersPerConn)

	// Replies still outstanding when the client disconnects are written
	// before the connection is closed
	var wg sync.WaitGroup

	// Replies of async requests are written from dispatcher goroutines
	var connMutex sync.Mutex

	newReply := func(mode transport.Mode, requestID uint64) transport.Reply {
		var once sync.Once
		start := time.Now()

		return func(resp []byte, err error) {
			once.Do(func() {
				defer func() {
					<-workerSemaphore
					wg.Done()
				}()

				Logger.Debugf("Processed %s request %d in %s", mode, requestID, time.Since(start))

				isErr := err != nil
				data := resp
				if isErr {
					data = []byte(err.Error())
				}

				connMutex.Lock()
				defer connMutex.Unlock()

				if timeout > 0 {
					if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
						Logger.Errorf("Failed to set write deadline: %v", err)
						return
					}
				}
				if err := writeFrame(conn, mode, isErr, requestID, data); err != nil {
					Logger.Errorf("Failed to write response: %v", err)
				}
			})
		}
	}

	handleRequest := func() error {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %v", err)
			}
		}

		buf := t.bufferPool.Get().([]byte)

		f, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			return err
		}

		// blocks if maxWorkersPerConn requests are in flight
		workerSemaphore <- struct{}{}
		wg.Add(1)

		go func() {
			defer t.bufferPool.Put(buf)
			reply := newReply(f.mode, f.requestID)
			if f.mode != transport.ModeSync && f.mode != transport.ModeAsync {
				reply(nil, fmt.Errorf("unknown request mode %d", f.mode))
				return
			}
			t.handler(f.mode, f.data, reply)
		}()

		return nil
	}

	for {
		err := handleRequest()

		if err == io.EOF {
			Logger.Infof("Connection closed by client")
			break
		}
		if err != nil {
			Logger.Errorf("Error handling request: %v", err)
			break
		}
	}

	wg.Wait()
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a server that exposes caller over transport
//
// Usage:
//
//	b := bridge.New(bridgeConfig)
//	s := server.NewRPCServer(
//		*config,
//		unix.NewUnixServerTransport(config.BufferSize, config.WorkersPerConn),
//		b,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	caller bridge.ICaller,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &RPCServer{
		config:    config,
		transport: transport,
		caller:    caller,
	}
}

// RPCServer forwards the requests of a transport to an ICaller
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	caller    bridge.ICaller

	metricsMu     sync.Mutex
	metricsServer *http.Server
}

// handle is the transport.ServerHandleFunc of the server
func (s *RPCServer) handle(mode transport.Mode, req []byte, reply transport.Reply) {
	switch mode {
	case transport.ModeSync:
		ctx := context.Background()
		if s.config.TimeoutSecond > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.TimeoutSecond)*time.Second)
			defer cancel()
		}
		reply(s.caller.Call(ctx, req))

	case transport.ModeAsync:
		// the caller copies req before returning
		s.caller.CallAsync(req, func(resp []byte, err error) {
			reply(resp, err)
		})

	default:
		reply(nil, fmt.Errorf("unknown request mode %d", mode))
	}
}

// Serve registers the handler and blocks while the transport listens.
// If a metrics endpoint is configured, the metrics are served over http
// in the prometheus text format.
func (s *RPCServer) Serve() error {
	s.transport.RegisterHandler(s.handle)

	if s.config.MetricsEndpoint != "" {
		s.serveMetrics(s.config.MetricsEndpoint)
	}

	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint. The caller is not
// closed, it belongs to whoever created it.
func (s *RPCServer) Close() error {
	err := s.transport.Close()

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	if s.metricsServer != nil {
		err = errors.CombineErrors(err, s.metricsServer.Close())
		s.metricsServer = nil
	}
	return err
}

func (s *RPCServer) serveMetrics(endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	srv := &http.Server{Addr: endpoint, Handler: mux}

	s.metricsMu.Lock()
	s.metricsServer = srv
	s.metricsMu.Unlock()

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}

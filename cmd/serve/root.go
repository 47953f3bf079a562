package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/ValentinKolb/logicbridge/rpc/server"
	"github.com/ValentinKolb/logicbridge/rpc/transport"
	"github.com/ValentinKolb/logicbridge/rpc/transport/tcp"
	"github.com/ValentinKolb/logicbridge/rpc/transport/unix"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge to other processes",
		Long: `Start a dev host server that exposes the bridge over a unix or tcp socket.
Apps running in a simulator connect to it instead of linking the bridge in.
The configuration can be set via command line flags or environment variables
in the form LOGIC_<flag> (e.g. LOGIC_ENDPOINT=/tmp/logic.sock).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "transport"
	ServeCmd.PersistentFlags().String(key, "unix", util.WrapString("Socket type to listen on (unix, tcp)"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "/tmp/logic.sock", util.WrapString("The address to listen on (a socket path for unix, host:port for tcp)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, util.WrapString("Read and write deadline per frame in seconds (0 = none)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, util.WrapString("Max. number of requests in flight per connection"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("Size of the pooled read buffers in KB (0 = transport default)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", util.WrapString("Optional address to serve prometheus metrics on (e.g. localhost:9100)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(_ *cobra.Command, _ []string) error {
	serveCmdConfig.Bridge = common.BridgeConfigFromViper()
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.BufferSize = viper.GetInt("buffer-size") * 1024
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")

	if serveCmdConfig.Endpoint == "" {
		return fmt.Errorf("no endpoint configured")
	}
	return nil
}

// newTransport creates the server transport selected in the configuration
func newTransport(config *common.ServerConfig) (transport.IRPCServerTransport, error) {
	switch config.Transport {
	case "unix":
		return unix.NewUnixServerTransport(config.BufferSize, config.WorkersPerConn), nil
	case "tcp":
		return tcp.NewTCPServerTransport(config.BufferSize, config.WorkersPerConn), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", config.Transport)
	}
}

// run starts the server and blocks until it is stopped by a signal
func run(_ *cobra.Command, _ []string) error {
	t, err := newTransport(serveCmdConfig)
	if err != nil {
		return err
	}

	b := util.NewBridge(serveCmdConfig.Bridge)
	serv := server.NewRPCServer(*serveCmdConfig, t, b)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			server.Logger.Infof("Shutting down")
			_ = serv.Close()
		}
	}()

	err = serv.Serve()
	return errors.CombineErrors(err, b.Close())
}

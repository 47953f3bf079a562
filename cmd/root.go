package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/logicbridge/cmd/cache"
	"github.com/ValentinKolb/logicbridge/cmd/call"
	"github.com/ValentinKolb/logicbridge/cmd/perf"
	"github.com/ValentinKolb/logicbridge/cmd/serve"
	"github.com/ValentinKolb/logicbridge/cmd/stats"
	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "logic",
		Short: "call bridge for the forum client logic",
		Long: fmt.Sprintf(`logic (v%s)

Runs the shared client logic outside of the mobile app: call handlers
with raw envelopes, inspect the cache, benchmark the dispatcher or serve
the bridge to a simulator over a socket.

All flags can also be set as environment variables in the form
LOGIC_<flag> (e.g. LOGIC_CACHE_PATH=/tmp/logic).`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: initRun,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of logic",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("logic v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(common.InitEnv)

	// Add Commands
	RootCmd.AddCommand(call.CallCmd)
	RootCmd.AddCommand(cache.CacheCommands)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(stats.StatsCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupBridgeFlags(RootCmd)
}

// initRun binds the flags of the executed command and sets up logging
func initRun(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	common.InitLoggers(common.BridgeConfigFromViper())
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

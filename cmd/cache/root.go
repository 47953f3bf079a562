package cache

import (
	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	// CacheCommands represents the cache command group
	CacheCommands = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit the cache store",
		Long: `Read and write raw entries of the cache store at --cache-path.
The store must not be opened by another process at the same time.`,
	}
)

func init() {
	// Add subcommands
	CacheCommands.AddCommand(getCmd)
	CacheCommands.AddCommand(insertCmd)
	CacheCommands.AddCommand(deleteCmd)
	CacheCommands.AddCommand(infoCmd)
}

// withCache opens the configured cache for the duration of fn
func withCache(fn func(cmd *cobra.Command, c *cache.Cache, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		config := common.BridgeConfigFromViper()
		c := cache.New(config.CacheConfig())
		defer func() {
			err = errors.CombineErrors(err, c.Close())
		}()
		return fn(cmd, c, args)
	}
}

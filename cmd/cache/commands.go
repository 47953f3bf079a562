package cache

import (
	"fmt"

	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: withCache(func(cmd *cobra.Command, c *cache.Cache, args []string) error {
			value, ok, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "key not found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), util.FormatPayload(value))
			return nil
		}),
	}
	insertCmd = &cobra.Command{
		Use:   "insert [key] [value]",
		Short: "Store a value under a key and print the previous value",
		Long:  "Store a value under a key. The value can be text, hex:<digits> or @<file>.",
		Args:  cobra.ExactArgs(2),
		RunE: withCache(func(cmd *cobra.Command, c *cache.Cache, args []string) error {
			value, err := util.ParsePayload(args[1])
			if err != nil {
				return err
			}
			prev, replaced, err := c.Insert(args[0], value)
			if err != nil {
				return err
			}
			if replaced {
				fmt.Fprintf(cmd.OutOrStdout(), "replaced: %s\n", util.FormatPayload(prev))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "inserted")
			}
			return nil
		}),
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: withCache(func(cmd *cobra.Command, c *cache.Cache, args []string) error {
			deleted, err := c.Delete(args[0])
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "key not found")
			}
			return nil
		}),
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Print statistics of the cache store",
		Args:  cobra.NoArgs,
		RunE: withCache(func(cmd *cobra.Command, c *cache.Cache, _ []string) error {
			info, err := c.Info()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:    %s\n", displayPath(c.Path()))
			fmt.Fprintf(out, "Engine:  %s\n", info.DbType)
			fmt.Fprintf(out, "Size:    %d bytes\n", info.SizeBytes)
			if info.Entries >= 0 {
				fmt.Fprintf(out, "Entries: %d\n", info.Entries)
			}
			if info.Metadata != nil {
				fmt.Fprintf(out, "Details: %+v\n", info.Metadata)
			}
			return nil
		}),
	}
)

func displayPath(path string) string {
	if path == "" {
		return "(in-memory)"
	}
	return path
}

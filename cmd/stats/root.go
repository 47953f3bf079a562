package stats

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	StatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print bridge metrics",
		Long: `Print the metrics of a dev host server started with --metrics-endpoint.
Without an endpoint the metrics of this process are printed, which is
mostly useful to list the available metric names.`,
		RunE: run,
	}
)

func init() {
	key := "metrics-endpoint"
	StatsCmd.Flags().String(key, "", util.WrapString("Metrics endpoint of a running dev host server (e.g. localhost:9100)"))
	key = "filter"
	StatsCmd.Flags().String(key, "logic_", util.WrapString("Only print metrics starting with this prefix (empty prints all)"))
}

func run(cmd *cobra.Command, _ []string) error {
	var sb strings.Builder
	if endpoint := viper.GetString("metrics-endpoint"); endpoint != "" {
		if err := fetch(endpoint, &sb); err != nil {
			return err
		}
	} else {
		metrics.WritePrometheus(&sb, false)
	}

	printFiltered(cmd.OutOrStdout(), sb.String(), viper.GetString("filter"))
	return nil
}

// fetch reads the metrics page of a dev host server
func fetch(endpoint string, w io.Writer) error {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(endpoint, "/") + "/metrics")
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch metrics: %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// printFiltered prints the lines of a prometheus page that start with prefix
func printFiltered(out io.Writer, page, prefix string) {
	for _, line := range strings.Split(page, "\n") {
		if line == "" || !strings.HasPrefix(line, prefix) {
			continue
		}
		fmt.Fprintln(out, line)
	}
}

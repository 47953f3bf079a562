package perf

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Benchmark the bridge",
		Long:    "Runs echo calls through the sync and async entry points and cache operations, and prints throughput and latency percentiles.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. async,cache-get)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines calling in parallel"))
	key = "large-value-size"
	PerfCmd.Flags().Int(key, 100, util.WrapString("Payload size of the large benchmarks (in KB)"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the cache benchmarks"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))

	util.SetupRPCClientFlags(PerfCmd)
}

func processPerfConfig(_ *cobra.Command, _ []string) error {
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

// scenario is one benchmark. op is called with a per goroutine counter.
type scenario struct {
	name  string
	setup func() error
	op    func(i int) error
}

// result of a scenario
type result struct {
	name    string
	bench   testing.BenchmarkResult
	latency gometrics.Timer
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Performance testing tool for the logic bridge")
	fmt.Fprintln(out)

	caller, err := util.NewCaller()
	if err != nil {
		return err
	}
	defer caller.Close()

	if remote := viper.GetString("remote"); remote != "" {
		cfg := util.GetClientConfig()
		fmt.Fprintln(out, cfg.String())
	} else {
		fmt.Fprintln(out, "in-process bridge")
	}
	fmt.Fprintf(out, "Threads: %d\n\n", perfNumThreads)

	scenarios, err := buildScenarios(caller)
	if err != nil {
		return err
	}

	registry := gometrics.NewRegistry()
	results := make([]result, 0, len(scenarios))
	for _, s := range scenarios {
		if shouldSkip(s.name) {
			printSkipped(out, s.name)
			continue
		}
		r := runScenario(registry, s)
		printResult(out, r)
		results = append(results, r)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nresults written to %s\n", csvPath)
	}
	return nil
}

// buildScenarios returns the benchmarks for caller. Cache benchmarks need
// an in-process bridge.
func buildScenarios(caller bridge.ICaller) ([]scenario, error) {
	codec := envelope.NewWireCodec()
	small, err := codec.EncodeRequest(envelope.NewRequest(envelope.KindSync, envelope.CaseEcho, []byte("ping")))
	if err != nil {
		return nil, err
	}
	large, err := codec.EncodeRequest(envelope.NewRequest(envelope.KindSync, envelope.CaseEcho, make([]byte, perfLargeValueSizeKB*1024)))
	if err != nil {
		return nil, err
	}
	async, err := codec.EncodeRequest(envelope.NewRequest(envelope.KindAsync, envelope.CaseEcho, []byte("ping")))
	if err != nil {
		return nil, err
	}

	syncCall := func(req []byte) func(int) error {
		return func(int) error {
			_, err := caller.Call(context.Background(), req)
			return err
		}
	}

	scenarios := []scenario{
		{name: "sync", op: syncCall(small)},
		{name: "sync-large", op: syncCall(large)},
		{name: "async", op: func(int) error {
			done := make(chan error, 1)
			caller.CallAsync(async, func(_ []byte, err error) { done <- err })
			return <-done
		}},
	}

	b, ok := caller.(*bridge.Bridge)
	if !ok {
		return scenarios, nil
	}

	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%d", perfKeyPrefix, i)
	}
	value := []byte("test")

	return append(scenarios,
		scenario{name: "cache-insert", op: func(i int) error {
			_, _, err := b.Cache().Insert(keys[i%len(keys)], value)
			return err
		}},
		scenario{
			name: "cache-get",
			setup: func() error {
				for _, k := range keys {
					if _, _, err := b.Cache().Insert(k, value); err != nil {
						return err
					}
				}
				return nil
			},
			op: func(i int) error {
				_, _, err := b.Cache().Get(keys[i%len(keys)])
				return err
			},
		},
	), nil
}

// runScenario benchmarks s and records the latency of every call
func runScenario(registry gometrics.Registry, s scenario) result {
	latency := gometrics.GetOrRegisterTimer(s.name, registry)

	bench := testing.Benchmark(func(b *testing.B) {
		if s.setup != nil {
			if err := s.setup(); err != nil {
				log.Printf("(%s) - setup failed: %v\n", s.name, err)
				return
			}
		}

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := s.op(counter); err != nil {
					log.Printf("(%s) - error: %v\n", s.name, err)
				}
				latency.UpdateSince(start)
				counter++
			}
		})
	})

	return result{name: s.name, bench: bench, latency: latency}
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

func printSkipped(out io.Writer, test string) {
	fmt.Fprintf(out, "%-16sskipped\n", test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, r result) {
	if r.bench.NsPerOp() == 0 {
		printSkipped(out, r.name)
		return
	}

	nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	snap := r.latency.Snapshot()

	fmt.Fprintf(out, "%-16s%.0f ops/sec\tp50 %s\tp99 %s\tmax %s\n",
		r.name, opsPerSec,
		time.Duration(snap.Percentile(0.5)),
		time.Duration(snap.Percentile(0.99)),
		time.Duration(snap.Max()))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "OpsPerSec", "Calls", "P50Ns", "P99Ns", "MaxNs",
		"Remote", "Transport", "Threads", "LargeValueSizeKB", "Keys",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1)
		snap := r.latency.Snapshot()

		row := []string{
			r.name,
			fmt.Sprintf("%.0f", nsPerOp),
			fmt.Sprintf("%.0f", 1.0/(nsPerOp/1e9)),
			strconv.FormatInt(snap.Count(), 10),
			fmt.Sprintf("%.0f", snap.Percentile(0.5)),
			fmt.Sprintf("%.0f", snap.Percentile(0.99)),
			strconv.FormatInt(snap.Max(), 10),
			viper.GetString("remote"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	return nil
}

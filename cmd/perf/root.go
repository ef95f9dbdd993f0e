package perf

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cmdUtil "github.com/vkolb/echod/cmd/util"
	"golang.org/x/sync/errgroup"
)

var (
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for echod servers",
		Long:    `Run a load test against a running echod server: a number of concurrent client threads perform echo exchanges and per-exchange latency is collected. Results are printed and can optionally be exported as CSV.`,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads  = 10
	perfNumRequests = 1000
	perfPayloadSize = 1024
)

func init() {
	cobra.OnInitialize(cmdUtil.InitClientConfig)
	cmdUtil.SetupClientFlags(PerfCmd)

	// add flags
	key := "threads"
	PerfCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of threads to use for the load test"))
	key = "requests"
	PerfCmd.Flags().Int(key, 1000, cmdUtil.WrapString("Total number of echo exchanges to perform"))
	key = "payload-size"
	PerfCmd.Flags().Int(key, 1024, cmdUtil.WrapString("Size of the random payload per exchange (in bytes)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save the results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfNumRequests = viper.GetInt("requests")
	perfPayloadSize = viper.GetInt("payload-size")

	if perfNumThreads < 1 {
		return fmt.Errorf("threads must be at least 1")
	}
	if perfNumRequests < perfNumThreads {
		return fmt.Errorf("requests must be at least the number of threads")
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for echod servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(cmdUtil.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Requests: %d\n", perfNumRequests)
	fmt.Printf("Payload Size: %d bytes\n", perfPayloadSize)
	fmt.Println()

	// Create and connect the client transport
	t, err := cmdUtil.GetClientTransport()
	if err != nil {
		return err
	}
	if err := t.Connect(*cmdUtil.GetClientConfig()); err != nil {
		return err
	}
	defer t.Close()

	// Latency and error tracking
	registry := gometrics.NewRegistry()
	timer := gometrics.NewRegisteredTimer("echo", registry)
	errCount := gometrics.NewRegisteredCounter("errors", registry)

	fmt.Println("starting test...")

	requestsPerThread := perfNumRequests / perfNumThreads

	start := time.Now()

	var g errgroup.Group
	for i := 0; i < perfNumThreads; i++ {
		g.Go(func() error {
			// every thread echoes its own distinct payload, so a
			// cross-contaminated response is detected immediately
			payload := make([]byte, perfPayloadSize)
			rand.Read(payload)

			for j := 0; j < requestsPerThread; j++ {
				reqStart := time.Now()
				resp, err := t.Echo(payload)
				timer.UpdateSince(reqStart)

				if err != nil {
					errCount.Inc(1)
					continue
				}
				if !bytes.Equal(resp, payload) {
					return fmt.Errorf("response does not match payload (%d bytes vs %d bytes)", len(resp), len(payload))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)

	// Print results
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	results := [][2]string{
		{"exchanges", strconv.FormatInt(timer.Count(), 10)},
		{"errors", strconv.FormatInt(errCount.Count(), 10)},
		{"total time", elapsed.String()},
		{"throughput (1/s)", fmt.Sprintf("%.1f", float64(timer.Count())/elapsed.Seconds())},
		{"mean latency", time.Duration(timer.Mean()).String()},
		{"p50 latency", time.Duration(ps[0]).String()},
		{"p95 latency", time.Duration(ps[1]).String()},
		{"p99 latency", time.Duration(ps[2]).String()},
		{"max latency", time.Duration(timer.Max()).String()},
	}

	fmt.Println()
	fmt.Println("Results:")
	for _, r := range results {
		fmt.Printf("  %-18s: %s\n", r[0], r[1])
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// writeResultsToCSV writes the results as metric/value rows
func writeResultsToCSV(path string, results [][2]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := writer.Write([]string{r[0], r[1]}); err != nil {
			return err
		}
	}

	return nil
}

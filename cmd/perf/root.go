package perf

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/tsput/cmd/util"
	"github.com/ValentinKolb/tsput/lib/datapoint"
	"github.com/ValentinKolb/tsput/rpc/client"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"os"
	"strconv"
	"time"
)

var (
	Logger = logger.GetLogger("cli")

	perfClient *client.Client

	// PerfCmd is a load generator for time-series stores
	PerfCmd = &cobra.Command{
		Use:               "perf",
		Short:             "Performance testing tool for time-series stores",
		PersistentPreRunE: setupPerfClient,
		RunE:              run,
	}

	perfPoints      = 100000
	perfConcurrency = 8
	perfBatchSize   = 1
	perfMetric      = "tsput.perf"
	perfTagSpread   = 10
)

func init() {
	// Add client flags to the perf command
	util.SetupClientFlags(PerfCmd)

	// add flags
	key := "points"
	PerfCmd.Flags().Int(key, perfPoints, util.WrapString("Total number of data points to send"))
	key = "concurrency"
	PerfCmd.Flags().Int(key, perfConcurrency, util.WrapString("Number of goroutines sending concurrently"))
	key = "batch-size"
	PerfCmd.Flags().Int(key, perfBatchSize, util.WrapString("How many points are sent with a single write"))
	key = "metric"
	PerfCmd.Flags().String(key, perfMetric, util.WrapString("Metric name of the generated points"))
	key = "tag-spread"
	PerfCmd.Flags().Int(key, perfTagSpread, util.WrapString("How many different values the generated 'series' tag takes"))
	key = "prometheus"
	PerfCmd.Flags().Bool(key, false, util.WrapString("Print the client metrics in Prometheus text format after the run"))
}

// setupPerfClient reads the perf configuration and initializes the client
func setupPerfClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLogging(); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfPoints = viper.GetInt("points")
	perfConcurrency = max(viper.GetInt("concurrency"), 1)
	perfBatchSize = max(viper.GetInt("batch-size"), 1)
	perfMetric = viper.GetString("metric")
	perfTagSpread = max(viper.GetInt("tag-spread"), 1)

	config := util.GetClientConfig()
	connector, err := util.GetClientConnector(config.Transport)
	if err != nil {
		return err
	}

	perfClient, err = client.NewClient(config, connector)
	return err
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Println("Performance testing tool for time-series stores")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	config := perfClient.Config()
	fmt.Println(config.String())
	fmt.Printf("Points: %d, Concurrency: %d, Batch Size: %d\n", perfPoints, perfConcurrency, perfBatchSize)
	fmt.Println()

	fmt.Println("starting load...")
	result := runLoad(ctx, perfClient, perfPoints, perfConcurrency, perfBatchSize)
	printResult(result)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := perfClient.Shutdown(shutdownCtx); err != nil {
		Logger.Errorf("shutdown: %v", err)
	}

	if viper.GetBool("prometheus") {
		fmt.Println()
		perfClient.WritePrometheus(os.Stdout)
	}

	return nil
}

// --------------------------------------------------------------------------
// Load generation
// --------------------------------------------------------------------------

// loadResult holds the measurements of one run
type loadResult struct {
	elapsed time.Duration
	latency metrics.Histogram // per batch, in nanoseconds
	sent    metrics.Meter     // points
	failed  metrics.Counter   // batches
}

// putter is the part of the client the load generator uses
type putter interface {
	PutBatch(ctx context.Context, points []datapoint.DataPoint) error
}

// runLoad sends points batches from concurrency goroutines and records the
// latency of every batch. Send errors are counted, they do not stop the run.
func runLoad(ctx context.Context, c putter, points, concurrency, batchSize int) loadResult {
	result := loadResult{
		latency: metrics.NewHistogram(metrics.NewUniformSample(100000)),
		sent:    metrics.NewMeter(),
		failed:  metrics.NewCounter(),
	}
	defer result.sent.Stop()

	batches := (points + batchSize - 1) / batchSize
	next := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(next)
		for i := 0; i < batches; i++ {
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := range next {
				n := min(batchSize, points-i*batchSize)
				batch := makeBatch(i*batchSize, n)

				t := time.Now()
				if err := c.PutBatch(gctx, batch); err != nil {
					result.failed.Inc(1)
					Logger.Debugf("batch %d failed: %v", i, err)
					continue
				}
				result.latency.Update(time.Since(t).Nanoseconds())
				result.sent.Mark(int64(n))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		Logger.Warningf("load generation stopped: %v", err)
	}
	result.elapsed = time.Since(start)
	return result
}

// makeBatch generates n points starting at sequence number first
func makeBatch(first, n int) []datapoint.DataPoint {
	now := time.Now().UnixMilli()
	batch := make([]datapoint.DataPoint, 0, n)
	for i := first; i < first+n; i++ {
		batch = append(batch, datapoint.MustNew(
			perfMetric,
			now,
			datapoint.Int(int64(i)),
			map[string]string{"series": strconv.Itoa(i % perfTagSpread)},
		))
	}
	return batch
}

// printResult prints the result of a run in a formatted way
func printResult(r loadResult) {
	snapshot := r.latency.Snapshot()
	sent := r.sent.Snapshot()

	fmt.Printf("%-20s%s\n", "elapsed", r.elapsed)
	fmt.Printf("%-20s%d\n", "points sent", sent.Count())
	fmt.Printf("%-20s%d\n", "batches failed", r.failed.Count())
	if r.elapsed > 0 {
		fmt.Printf("%-20s%.0f points/sec\n", "throughput", float64(sent.Count())/r.elapsed.Seconds())
	}

	if snapshot.Count() == 0 {
		return
	}
	ps := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-20s%s\n", "latency min", time.Duration(snapshot.Min()))
	fmt.Printf("%-20s%s\n", "latency p50", time.Duration(ps[0]))
	fmt.Printf("%-20s%s\n", "latency p95", time.Duration(ps[1]))
	fmt.Printf("%-20s%s\n", "latency p99", time.Duration(ps[2]))
	fmt.Printf("%-20s%s\n", "latency max", time.Duration(snapshot.Max()))
}

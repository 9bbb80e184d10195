package put

import (
	"bufio"
	"context"
	"fmt"
	"github.com/ValentinKolb/tsput/cmd/util"
	"github.com/ValentinKolb/tsput/lib/datapoint"
	"github.com/ValentinKolb/tsput/rpc/client"
	"github.com/go-faster/errors"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	Logger = logger.GetLogger("cli")

	putClient *client.Client

	// PutCmd sends data points to the store
	PutCmd = &cobra.Command{
		Use:   "put [metric] [value] [tagKey=tagValue...]",
		Short: "Send data points to the store",
		Long: `Send a single data point given as arguments, or, without arguments,
read line protocol from stdin ("put <metric> <timestamp> <value> [tags]")
and send it in batches.`,
		PersistentPreRunE: setupPutClient,
		RunE:              run,
	}
)

func init() {
	// Add client flags to the put command
	util.SetupClientFlags(PutCmd)

	key := "timestamp"
	PutCmd.Flags().Int64(key, 0, util.WrapString("Timestamp in milliseconds since epoch for a point given as arguments (0 uses the current time)"))
	key = "batch-size"
	PutCmd.Flags().Int(key, 100, util.WrapString("How many points read from stdin are sent with a single write"))
	key = "shutdown-timeout"
	PutCmd.Flags().Int(key, 30, util.WrapString("How long to wait for outstanding sends before giving up (in seconds)"))
}

// setupPutClient initializes the put client
func setupPutClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLogging(); err != nil {
		return err
	}

	config := util.GetClientConfig()
	connector, err := util.GetClientConnector(config.Transport)
	if err != nil {
		return err
	}

	putClient, err = client.NewClient(config, connector)
	return err
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var sendErr error
	if len(args) > 0 {
		ts := viper.GetInt64("timestamp")
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		p, err := parsePointArgs(args, ts)
		if err != nil {
			_ = putClient.Shutdown(ctx)
			return err
		}
		sendErr = putClient.Put(ctx, p)
		if sendErr == nil {
			fmt.Print(p.String())
		}
	} else {
		sendErr = sendStdin(os.Stdin, viper.GetInt("batch-size"))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(viper.GetInt("shutdown-timeout"))*time.Second)
	defer cancel()
	if err := putClient.Shutdown(shutdownCtx); err != nil {
		Logger.Errorf("shutdown: %v", err)
	}

	return sendErr
}

// sendStdin reads line protocol from r and sends it in batches of batchSize points.
// It waits for all batches and reports how many of them failed.
func sendStdin(r io.Reader, batchSize int) error {
	var (
		futures []*client.Future
		points  int
	)

	err := readBatches(r, batchSize, func(batch []datapoint.DataPoint) {
		points += len(batch)
		futures = append(futures, putClient.PutBatchAsync(batch))
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, f := range futures {
		if err := f.Wait(context.Background()); err != nil {
			failed++
		}
	}

	fmt.Printf("sent %d points in %d batches (%d failed)\n", points, len(futures), failed)
	if failed > 0 {
		return errors.Errorf("%d of %d batches failed", failed, len(futures))
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parsePointArgs builds a data point from "metric value [k=v...]" arguments
func parsePointArgs(args []string, ts int64) (datapoint.DataPoint, error) {
	if len(args) < 2 {
		return datapoint.DataPoint{}, errors.New("expected at least a metric and a value")
	}

	value, err := datapoint.ParseValue(args[1])
	if err != nil {
		return datapoint.DataPoint{}, err
	}

	tags := make(map[string]string, len(args)-2)
	for _, arg := range args[2:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return datapoint.DataPoint{}, errors.Errorf("tag %q is not key=value", arg)
		}
		tags[k] = v
	}

	return datapoint.New(args[0], ts, value, tags)
}

// readBatches parses every non-empty line of r and hands the points to send in
// batches of at most batchSize, in input order. Invalid lines abort the read.
func readBatches(r io.Reader, batchSize int, send func([]datapoint.DataPoint)) error {
	if batchSize <= 0 {
		batchSize = 1
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	batch := make([]datapoint.DataPoint, 0, batchSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		p, err := datapoint.ParseLine(line)
		if err != nil {
			return errors.Wrap(err, "line "+strconv.Itoa(lineNo))
		}

		batch = append(batch, p)
		if len(batch) == batchSize {
			send(batch)
			batch = make([]datapoint.DataPoint, 0, batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}

	if len(batch) > 0 {
		send(batch)
	}
	return nil
}

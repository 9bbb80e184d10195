package client

import (
	"github.com/ValentinKolb/tsput/rpc/transport/pool"
	"github.com/VictoriaMetrics/metrics"
)

// clientMetrics is the per-client metric set, exposed in Prometheus text format
type clientMetrics struct {
	set *metrics.Set

	sends           *metrics.Counter
	sendFailures    *metrics.Counter
	points          *metrics.Counter
	retries         *metrics.Counter
	attempts        *metrics.Counter
	attemptFailures *metrics.Counter
	bytes           *metrics.Counter
	attemptDuration *metrics.Histogram
}

// newClientMetrics creates the metric set, the pool gauges read stats on scrape
func newClientMetrics(stats func() pool.Stats) *clientMetrics {
	s := metrics.NewSet()
	m := &clientMetrics{
		set:             s,
		sends:           s.NewCounter("tsput_sends_total"),
		sendFailures:    s.NewCounter("tsput_send_failures_total"),
		points:          s.NewCounter("tsput_points_total"),
		retries:         s.NewCounter("tsput_retries_total"),
		attempts:        s.NewCounter("tsput_attempts_total"),
		attemptFailures: s.NewCounter("tsput_attempt_failures_total"),
		bytes:           s.NewCounter("tsput_written_bytes_total"),
		attemptDuration: s.NewHistogram("tsput_attempt_duration_seconds"),
	}

	s.NewGauge("tsput_pool_max_connections", func() float64 { return float64(stats().MaxConnections) })
	s.NewGauge("tsput_pool_idle_connections", func() float64 { return float64(stats().Idle) })
	s.NewGauge("tsput_pool_leased_connections", func() float64 { return float64(stats().Leased) })
	s.NewGauge("tsput_pool_waiting_acquires", func() float64 { return float64(stats().Waiting) })
	s.NewGauge("tsput_pool_created_connections", func() float64 { return float64(stats().Created) })
	s.NewGauge("tsput_pool_discarded_connections", func() float64 { return float64(stats().Discarded) })
	return m
}

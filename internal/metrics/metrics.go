// Package metrics defines the prometheus collectors for contract calls.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/genstore/internal/fault"
)

// Keys for genstore metrics.
const (
	CallsTotalKey          = "genstore_calls_total"
	CallDurationSecondsKey = "genstore_call_duration_seconds"
	SnapshotBytesKey       = "genstore_snapshot_bytes"
	RecordsKey             = "genstore_records"
)

// OutcomeOK labels a successful call.
const OutcomeOK = "ok"

// Metrics holds one set of collectors. Each Runtime gets its own so tests
// don't share counters.
type Metrics struct {
	CallsTotal          *prometheus.CounterVec
	CallDurationSeconds *prometheus.HistogramVec
	SnapshotBytes       prometheus.Gauge
	Records             prometheus.Gauge
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CallsTotalKey,
			Help: "Cumulative number of contract calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		CallDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    CallDurationSecondsKey,
			Help:    "Duration of contract calls including load and save.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		}, []string{"op"}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: SnapshotBytesKey,
			Help: "Size of the last committed snapshot.",
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: RecordsKey,
			Help: "Number of records in the last committed snapshot.",
		}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.CallsTotal, m.CallDurationSeconds, m.SnapshotBytes, m.Records}
}

// ObserveCall records one call.
func (m *Metrics) ObserveCall(op string, err error, d time.Duration) {
	m.CallsTotal.WithLabelValues(op, Outcome(err)).Inc()
	m.CallDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveSnapshot records the size of a committed snapshot.
func (m *Metrics) ObserveSnapshot(bytes, records int) {
	m.SnapshotBytes.Set(float64(bytes))
	m.Records.Set(float64(records))
}

// Outcome maps an error onto a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := fault.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

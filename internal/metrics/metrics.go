package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"invoice-recon/internal/domain"
)

// Metrics holds the Prometheus collectors for reconciliation runs and the HTTP API.
type Metrics struct {
	// Registry owns the collectors; /metrics serves from it.
	Registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	entriesTotal    *prometheus.CounterVec
	skippedRows     *prometheus.CounterVec
	ambiguousRows   prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New creates a private registry so repeated construction in tests does not
// panic on duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_runs_total",
				Help: "Reconciliation runs by final status.",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recon_run_duration_seconds",
				Help:    "Duration of reconciliation runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		entriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_entries_total",
				Help: "Reconciled entries by discrepancy category.",
			},
			[]string{"discrepancy"},
		),
		skippedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_skipped_rows_total",
				Help: "Malformed input rows skipped during normalization.",
			},
			[]string{"source"},
		),
		ambiguousRows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recon_ambiguous_payment_rows_total",
				Help: "Bank rows that looked like payments but carried no invoice id.",
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recon_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RecordRun counts a finished run and observes its duration.
func (m *Metrics) RecordRun(status domain.RunStatus, d time.Duration) {
	m.runsTotal.WithLabelValues(string(status)).Inc()
	m.runDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

// RecordEntries adds a run's per-category counts.
func (m *Metrics) RecordEntries(totals domain.RunTotals) {
	for _, d := range domain.Discrepancies {
		if n := totals.Count(d); n > 0 {
			m.entriesTotal.WithLabelValues(string(d)).Add(float64(n))
		}
	}
}

func (m *Metrics) RecordSkipped(skipped []domain.SkippedRecord) {
	for _, s := range skipped {
		m.skippedRows.WithLabelValues(string(s.Source)).Inc()
	}
}

func (m *Metrics) RecordAmbiguous(n int) {
	if n > 0 {
		m.ambiguousRows.Add(float64(n))
	}
}

// ObserveRequest records one HTTP request against its route template.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

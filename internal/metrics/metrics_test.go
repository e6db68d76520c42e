package metrics_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/metrics"
)

// gathered returns the sum of every sample of the named family
func gathered(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestNew_PrivateRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}

func TestMetrics_RecordRun(t *testing.T) {
	m := metrics.New()

	m.RecordRun(domain.Completed, 120*time.Millisecond)
	m.RecordRun(domain.Failed, time.Second)

	assert.Equal(t, 2.0, gathered(t, m, "recon_runs_total"))
	assert.Equal(t, 2.0, gathered(t, m, "recon_run_duration_seconds"))
}

func TestMetrics_RecordEntries(t *testing.T) {
	m := metrics.New()

	m.RecordEntries(domain.RunTotals{TotalEntries: 5, Matched: 3, Duplicates: 1, Missing: 1})

	assert.Equal(t, 5.0, gathered(t, m, "recon_entries_total"))
}

func TestMetrics_RecordSkippedAndAmbiguous(t *testing.T) {
	m := metrics.New()

	m.RecordSkipped([]domain.SkippedRecord{
		{Source: domain.SourceERP, Row: 1, Field: "Date"},
		{Source: domain.SourceBank, Row: 4, Field: "Amount"},
	})
	m.RecordAmbiguous(3)
	m.RecordAmbiguous(0)

	assert.Equal(t, 2.0, gathered(t, m, "recon_skipped_rows_total"))
	assert.Equal(t, 3.0, gathered(t, m, "recon_ambiguous_payment_rows_total"))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := metrics.New()

	m.ObserveRequest(http.MethodPost, "/api/v1/reconcile", http.StatusOK, 50*time.Millisecond)

	assert.Equal(t, 1.0, gathered(t, m, "recon_http_request_duration_seconds"))
}

// Package report renders reconciled entries for people and spreadsheets.
// It never changes a classification; it only formats what the engine
// produced.
package report

import (
	"time"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/matcher"
)

// Default artifact names of a run
const (
	OutputFileName  = "reconciled_output.xlsx"
	SummaryFileName = "reconciliation_report.md"
)

// Report is everything a formatter needs about one run
type Report struct {
	RunID          string
	GeneratedAt    time.Time
	ErpSource      string
	BankSources    []string
	Entries        []domain.ReconciledEntry
	Totals         domain.RunTotals
	Skipped        []domain.SkippedRecord
	AmbiguousRows  int
	OrphanInvoices []string
}

// FromOutput builds a report straight from an engine run
func FromOutput(runID string, output *matcher.ReconciliationOutput) *Report {
	return &Report{
		RunID:          runID,
		GeneratedAt:    time.Now().UTC(),
		Entries:        output.Entries,
		Totals:         output.Totals(),
		Skipped:        output.SkippedRecords(),
		AmbiguousRows:  len(output.Ambiguous),
		OrphanInvoices: output.OrphanInvoices,
	}
}

// FromRun builds a report from a stored run and its entries
func FromRun(run *domain.ReconciliationRun, entries []domain.ReconciledEntry) *Report {
	return &Report{
		RunID:          run.RunID,
		GeneratedAt:    run.UpdatedAt,
		ErpSource:      run.ErpSource,
		BankSources:    run.BankSources,
		Entries:        entries,
		Totals:         run.RunTotals,
		Skipped:        run.Skipped,
		AmbiguousRows:  run.AmbiguousRows,
		OrphanInvoices: run.OrphanInvoices,
	}
}

// Records flattens the entries into their external layout
func (r *Report) Records() []domain.ReconciledRecord {
	records := make([]domain.ReconciledRecord, 0, len(r.Entries))
	for _, e := range r.Entries {
		records = append(records, e.Record())
	}
	return records
}

// ByDiscrepancy returns the entries of one category in report order
func (r *Report) ByDiscrepancy(d domain.Discrepancy) []domain.ReconciledEntry {
	var out []domain.ReconciledEntry
	for _, e := range r.Entries {
		if e.Discrepancy == d {
			out = append(out, e)
		}
	}
	return out
}

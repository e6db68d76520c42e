package matcher

import (
	"fmt"
	"sort"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

// ReconciliationEngine matches ERP invoices to bank payments by invoice id.
// It keeps no state between runs, so one engine may serve concurrent callers.
type ReconciliationEngine struct {
	cfg        Config
	filter     *PaymentFilter
	classifier *Classifier
}

func NewReconciliationEngine(cfg Config) (*ReconciliationEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	filter, err := NewPaymentFilter(cfg.PaymentMarker)
	if err != nil {
		return nil, err
	}

	return &ReconciliationEngine{
		cfg:        cfg,
		filter:     filter,
		classifier: NewClassifier(cfg.MatchToleranceExact, cfg.RoundingUpperBound),
	}, nil
}

// Config returns the policy the engine was built with
func (e *ReconciliationEngine) Config() Config {
	return e.cfg
}

// ReconciliationInput contains the raw rows of one run
type ReconciliationInput struct {
	ErpRows  []domain.RawRow
	BankRows []domain.RawRow
}

// ReconciliationOutput contains the results
type ReconciliationOutput struct {
	Entries        []domain.ReconciledEntry
	Skipped        []*domain.MalformedRecordError
	Ambiguous      []*domain.AmbiguousPaymentDescriptionError
	OrphanInvoices []string // paid in the bank, absent from the ERP set
	ErpCount       int
	BankCount      int
	PaymentCount   int
	NonPayments    int
}

// Reconcile normalizes both row sets and reconciles them. Under the abort
// policy the first malformed row fails the run with a ReconciliationFailure;
// under skip the row is left out and reported in Skipped.
func (e *ReconciliationEngine) Reconcile(input ReconciliationInput) (*ReconciliationOutput, error) {
	erpTxs, erpMalformed := NormalizeErpRows(input.ErpRows)
	if err := e.checkMalformed("erp normalization", erpMalformed); err != nil {
		return nil, err
	}

	bankTxs, bankMalformed := NormalizeBankRows(input.BankRows)
	if err := e.checkMalformed("bank normalization", bankMalformed); err != nil {
		return nil, err
	}

	output := e.ReconcileTransactions(erpTxs, bankTxs)
	output.Skipped = append(erpMalformed, bankMalformed...)

	return output, nil
}

// ReconcileLedger reconciles an already typed ERP ledger, such as one read
// from the database, against raw bank rows
func (e *ReconciliationEngine) ReconcileLedger(erp []domain.ErpTransaction, bankRows []domain.RawRow) (*ReconciliationOutput, error) {
	bankTxs, bankMalformed := NormalizeBankRows(bankRows)
	if err := e.checkMalformed("bank normalization", bankMalformed); err != nil {
		return nil, err
	}

	output := e.ReconcileTransactions(erp, bankTxs)
	output.Skipped = bankMalformed

	return output, nil
}

func (e *ReconciliationEngine) checkMalformed(stage string, malformed []*domain.MalformedRecordError) error {
	if len(malformed) == 0 {
		return nil
	}

	if e.cfg.OnMalformedRecord == PolicyAbort {
		return &domain.ReconciliationFailure{Stage: stage, Err: malformed[0]}
	}

	for _, m := range malformed {
		logger.GetLogger().WithFields(map[string]interface{}{
			"source": m.Source,
			"row":    m.Row,
			"field":  m.Field,
		}).WithError(m.Err).Warn("Skipping malformed record")
	}
	return nil
}

// ReconcileTransactions reconciles already typed transactions. Every ERP
// transaction yields exactly one entry, duplicates included; entries are
// ordered by invoice id and ties keep their input order.
func (e *ReconciliationEngine) ReconcileTransactions(erp []domain.ErpTransaction, bank []domain.BankTransaction) *ReconciliationOutput {
	logger.GetLogger().WithFields(map[string]interface{}{
		"erp_count":  len(erp),
		"bank_count": len(bank),
	}).Info("Starting reconciliation")

	filtered := e.filter.Filter(bank)
	groups := GroupByInvoice(filtered.Payments)

	entries := make([]domain.ReconciledEntry, 0, len(erp))
	for _, tx := range erp {
		entries = append(entries, e.classifier.Classify(tx, groups.Lookup(tx.InvoiceID)))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].InvoiceID < entries[j].InvoiceID
	})

	output := &ReconciliationOutput{
		Entries:        entries,
		Ambiguous:      filtered.Ambiguous,
		OrphanInvoices: groups.Orphans(erp),
		ErpCount:       len(erp),
		BankCount:      len(bank),
		PaymentCount:   len(filtered.Payments),
		NonPayments:    filtered.NonPayments,
	}

	totals := output.Totals()
	logger.GetLogger().WithFields(map[string]interface{}{
		"entries":              totals.TotalEntries,
		"matched":              totals.Matched,
		"rounding_differences": totals.RoundingDifferences,
		"amount_mismatches":    totals.AmountMismatches,
		"duplicates":           totals.Duplicates,
		"missing":              totals.Missing,
		"ambiguous_payments":   len(filtered.Ambiguous),
	}).Info("Reconciliation completed")

	return output
}

// Totals aggregates the entries of the output
func (o *ReconciliationOutput) Totals() domain.RunTotals {
	var totals domain.RunTotals
	for _, entry := range o.Entries {
		totals.Add(entry)
	}
	return totals
}

// SkippedRecords converts the skipped rows into report records
func (o *ReconciliationOutput) SkippedRecords() []domain.SkippedRecord {
	records := make([]domain.SkippedRecord, 0, len(o.Skipped))
	for _, s := range o.Skipped {
		records = append(records, s.Skipped())
	}
	return records
}

// EntriesByDiscrepancy groups entries by category, keeping their order
func (o *ReconciliationOutput) EntriesByDiscrepancy() map[domain.Discrepancy][]domain.ReconciledEntry {
	grouped := make(map[domain.Discrepancy][]domain.ReconciledEntry)
	for _, entry := range o.Entries {
		grouped[entry.Discrepancy] = append(grouped[entry.Discrepancy], entry)
	}
	return grouped
}

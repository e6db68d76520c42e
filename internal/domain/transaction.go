package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO date layout used for every serialized date
const DateLayout = "2006-01-02"

// ErpStatus is the ledger status of an invoice. It is carried through
// reconciliation unchanged.
type ErpStatus string

const (
	StatusPaid      ErpStatus = "Paid"
	StatusPending   ErpStatus = "Pending"
	StatusCancelled ErpStatus = "Cancelled"
)

// ErpTransaction represents one ERP ledger row
type ErpTransaction struct {
	ID        int             `json:"id,omitempty" db:"id"`
	Row       int             `json:"-"`
	Date      time.Time       `json:"date" db:"invoice_date"`
	InvoiceID string          `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    ErpStatus       `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

// BankTransaction represents a bank statement line. InvoiceID is empty
// unless the description carries a payment reference.
type BankTransaction struct {
	Row         int             `json:"row"`
	Date        *time.Time      `json:"date,omitempty"`
	Description string          `json:"description"`
	InvoiceID   string          `json:"invoice_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	IsPayment   bool            `json:"is_payment"`
	Source      string          `json:"source,omitempty"` // statement file or bank identifier
}

// Discrepancy classifies how an ERP amount compares to what the bank shows
type Discrepancy string

const (
	DiscrepancyMatch          Discrepancy = "Match"
	DiscrepancyRounding       Discrepancy = "Rounding difference"
	DiscrepancyAmountMismatch Discrepancy = "Amount mismatch"
	DiscrepancyDuplicate      Discrepancy = "Duplicate in Bank"
	DiscrepancyMissing        Discrepancy = "Missing in Bank"
)

// Discrepancies lists every category in report order
var Discrepancies = []Discrepancy{
	DiscrepancyMatch,
	DiscrepancyRounding,
	DiscrepancyAmountMismatch,
	DiscrepancyDuplicate,
	DiscrepancyMissing,
}

// Valid reports whether d is a known category
func (d Discrepancy) Valid() bool {
	for _, known := range Discrepancies {
		if d == known {
			return true
		}
	}
	return false
}

// ReconciledEntry is the reconciliation outcome for a single ERP transaction
type ReconciledEntry struct {
	Date           time.Time
	InvoiceID      string
	Amount         decimal.Decimal
	Status         ErpStatus
	AmountBank     decimal.Decimal
	BankCount      int
	Discrepancy    Discrepancy
	MismatchAmount decimal.Decimal
}

// ReconciledRecord is the flat, externally consumed layout of a ReconciledEntry
type ReconciledRecord struct {
	Date           string      `json:"Date"`
	InvoiceID      string      `json:"Invoice ID"`
	Amount         json.Number `json:"Amount"`
	Status         string      `json:"Status"`
	AmountBank     json.Number `json:"Amount_bank"`
	BankCount      int         `json:"Bank Count"`
	Discrepancy    string      `json:"Discrepancy"`
	MismatchAmount json.Number `json:"Mismatch Amount"`
}

// RecordColumns are the column names of a ReconciledRecord, in output order
var RecordColumns = []string{
	"Date", "Invoice ID", "Amount", "Status",
	"Amount_bank", "Bank Count", "Discrepancy", "Mismatch Amount",
}

// Record flattens the entry into its external layout
func (e ReconciledEntry) Record() ReconciledRecord {
	return ReconciledRecord{
		Date:           e.Date.Format(DateLayout),
		InvoiceID:      e.InvoiceID,
		Amount:         json.Number(FormatAmount(e.Amount)),
		Status:         string(e.Status),
		AmountBank:     json.Number(FormatAmount(e.AmountBank)),
		BankCount:      e.BankCount,
		Discrepancy:    string(e.Discrepancy),
		MismatchAmount: json.Number(FormatAmount(e.MismatchAmount)),
	}
}

// MarshalJSON renders the entry with the external record keys
func (e ReconciledEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}

// FormatAmount renders an amount with two decimal places, or with every
// significant place when it has more. The stored scale of the value does not
// change the result.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

// RunStatus represents the status of a reconciliation run
type RunStatus string

const (
	Pending    RunStatus = "PENDING"
	Processing RunStatus = "PROCESSING"
	Completed  RunStatus = "COMPLETED"
	Failed     RunStatus = "FAILED"
)

// RunTotals aggregates a set of reconciled entries
type RunTotals struct {
	TotalEntries        int             `json:"total_entries" db:"total_entries"`
	Matched             int             `json:"matched" db:"matched"`
	RoundingDifferences int             `json:"rounding_differences" db:"rounding_differences"`
	AmountMismatches    int             `json:"amount_mismatches" db:"amount_mismatches"`
	Duplicates          int             `json:"duplicates" db:"duplicates"`
	Missing             int             `json:"missing" db:"missing"`
	ErpAmount           decimal.Decimal `json:"erp_amount" db:"erp_amount"`
	BankAmount          decimal.Decimal `json:"bank_amount" db:"bank_amount"`
	NetMismatch         decimal.Decimal `json:"net_mismatch" db:"net_mismatch"`
}

// Add folds one entry into the totals
func (t *RunTotals) Add(e ReconciledEntry) {
	t.TotalEntries++
	t.ErpAmount = t.ErpAmount.Add(e.Amount)
	t.BankAmount = t.BankAmount.Add(e.AmountBank)
	t.NetMismatch = t.NetMismatch.Add(e.MismatchAmount)

	switch e.Discrepancy {
	case DiscrepancyMatch:
		t.Matched++
	case DiscrepancyRounding:
		t.RoundingDifferences++
	case DiscrepancyAmountMismatch:
		t.AmountMismatches++
	case DiscrepancyDuplicate:
		t.Duplicates++
	case DiscrepancyMissing:
		t.Missing++
	}
}

// Count returns the number of entries in category d
func (t RunTotals) Count(d Discrepancy) int {
	switch d {
	case DiscrepancyMatch:
		return t.Matched
	case DiscrepancyRounding:
		return t.RoundingDifferences
	case DiscrepancyAmountMismatch:
		return t.AmountMismatches
	case DiscrepancyDuplicate:
		return t.Duplicates
	case DiscrepancyMissing:
		return t.Missing
	}
	return 0
}

// ReconciliationRate is the percentage of entries classified as Match,
// rounded to two places. An empty run has a rate of zero.
func (t RunTotals) ReconciliationRate() decimal.Decimal {
	if t.TotalEntries == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(t.Matched)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(t.TotalEntries))).
		Round(2)
}

// ReconciliationRun represents one reconciliation run and its bookkeeping
type ReconciliationRun struct {
	ID            int       `json:"id" db:"id"`
	RunID         string    `json:"run_id" db:"run_id"`
	Status        RunStatus `json:"status" db:"status"`
	ErpSource     string    `json:"erp_source" db:"erp_source"`
	BankSources   []string  `json:"bank_sources" db:"bank_sources"`
	Policy        string    `json:"on_malformed_record" db:"on_malformed_record"`
	ErpRows       int       `json:"erp_rows" db:"erp_rows"`
	BankRows      int       `json:"bank_rows" db:"bank_rows"`
	BankPayments  int       `json:"bank_payments" db:"bank_payments"`
	SkippedRows   int       `json:"skipped_rows" db:"skipped_rows"`
	AmbiguousRows int       `json:"ambiguous_rows" db:"ambiguous_rows"`
	RunTotals
	Skipped        []SkippedRecord `json:"skipped,omitempty" db:"skipped_records"`
	OrphanInvoices []string        `json:"orphan_invoices,omitempty" db:"orphan_invoices"`
	ErrorMessage   *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// SkippedRecord describes an input row excluded from a lenient run
type SkippedRecord struct {
	Source RecordSource `json:"source"`
	Row    int          `json:"row"`
	Field  string       `json:"field"`
	Reason string       `json:"reason"`
}

// ReconciliationSummary represents the summary output of a run
type ReconciliationSummary struct {
	RunID              string            `json:"run_id"`
	Status             RunStatus         `json:"status"`
	Totals             RunTotals         `json:"totals"`
	ReconciliationRate decimal.Decimal   `json:"reconciliation_rate"`
	Skipped            []SkippedRecord   `json:"skipped,omitempty"`
	AmbiguousRows      int               `json:"ambiguous_rows"`
	OrphanInvoices     []string          `json:"orphan_invoices,omitempty"`
	Entries            []ReconciledEntry `json:"entries"`
}

// RawRow is one ingested row: column name to cell value, as produced by a
// spreadsheet, CSV, or PDF table reader.
type RawRow map[string]interface{}

// SourceColumn is the meta column ingestion uses to tag a row with the file
// it was read from.
const SourceColumn = "_source"

package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"invoice-recon/internal/domain"
)

// maxExamples caps the entries quoted per category in Detailed Findings
const maxExamples = 3

type finding struct {
	Discrepancy domain.Discrepancy
	Count       int
	Examples    []domain.ReconciledEntry
	More        int
}

type summaryView struct {
	*Report
	Rate            decimal.Decimal
	Issues          int
	Findings        []finding
	Recommendations []string
}

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"amount": domain.FormatAmount,
	"date": func(e domain.ReconciledEntry) string {
		return e.Date.Format(domain.DateLayout)
	},
	"join": strings.Join,
}).Parse(`# Reconciliation Report
{{if .RunID}}
Run: ` + "`{{.RunID}}`" + `
{{end}}
## Introduction

ERP invoices{{if .ErpSource}} from {{.ErpSource}}{{end}} were reconciled against the bank statement{{if .BankSources}} ({{join .BankSources ", "}}){{end}}. Only statement lines describing an invoice payment were considered; fees, interest and adjustments were excluded. Each ERP invoice was matched to bank payments by invoice ID alone, regardless of date, and the summed bank amount was compared with the ERP amount.

## Overall Reconciliation Rate

{{.Totals.Matched}} of {{.Totals.TotalEntries}} ERP transactions matched exactly ({{.Rate}}%). {{.Issues}} transaction(s) need attention.

| Measure | Amount |
|---|---:|
| ERP total | {{amount .Totals.ErpAmount}} |
| Bank total (matched payments) | {{amount .Totals.BankAmount}} |
| Net difference | {{amount .Totals.NetMismatch}} |

## Summary of Issues Found

| Category | Count |
|---|---:|
{{range .Findings}}| {{.Discrepancy}} | {{.Count}} |
{{end}}
## Detailed Findings
{{range .Findings}}{{if and .Count (ne (print .Discrepancy) "Match")}}
### {{.Discrepancy}}

| Invoice ID | Date | Status | ERP Amount | Bank Amount | Bank Count | Difference |
|---|---|---|---:|---:|---:|---:|
{{range .Examples}}| {{.InvoiceID}} | {{date .}} | {{.Status}} | {{amount .Amount}} | {{amount .AmountBank}} | {{.BankCount}} | {{amount .MismatchAmount}} |
{{end}}{{if .More}}
…and {{.More}} more.
{{end}}{{end}}{{end}}{{if not .Issues}}
No discrepancies were found.
{{end}}{{if or .Skipped .AmbiguousRows .OrphanInvoices}}
### Input Notes
{{if .Skipped}}
{{len .Skipped}} input row(s) were skipped as malformed:
{{range .Skipped}}
- {{.Source}} row {{.Row}}, field "{{.Field}}": {{.Reason}}{{end}}
{{end}}{{if .AmbiguousRows}}
{{.AmbiguousRows}} statement line(s) looked like payments but carried no invoice ID and were ignored.
{{end}}{{if .OrphanInvoices}}
Bank payments reference invoices absent from the ERP data: {{join .OrphanInvoices ", "}}.
{{end}}{{end}}
## Recommendations
{{range .Recommendations}}
- {{.}}{{end}}
`))

// WriteMarkdown renders the summary report
func (r *Report) WriteMarkdown(w io.Writer) error {
	view := summaryView{
		Report:          r,
		Rate:            r.Totals.ReconciliationRate(),
		Issues:          r.Totals.TotalEntries - r.Totals.Matched,
		Recommendations: r.recommendations(),
	}

	for _, d := range domain.Discrepancies {
		entries := r.ByDiscrepancy(d)
		f := finding{Discrepancy: d, Count: len(entries), Examples: entries}
		if len(entries) > maxExamples {
			f.Examples = entries[:maxExamples]
			f.More = len(entries) - maxExamples
		}
		view.Findings = append(view.Findings, f)
	}

	return summaryTemplate.Execute(w, view)
}

func (r *Report) recommendations() []string {
	var recs []string

	if mismatches := r.ByDiscrepancy(domain.DiscrepancyAmountMismatch); len(mismatches) > 0 {
		recs = append(recs, fmt.Sprintf("Investigate the amount mismatches on %s with the customers or the bank before closing the period.", invoiceList(mismatches)))
	}
	if duplicates := r.ByDiscrepancy(domain.DiscrepancyDuplicate); len(duplicates) > 0 {
		recs = append(recs, fmt.Sprintf("Review the repeated bank payments for %s and arrange refunds or credit notes where the customer paid twice.", invoiceList(duplicates)))
	}
	if missing := r.ByDiscrepancy(domain.DiscrepancyMissing); len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Follow up on %s, which have no payment in the statement; confirm whether they are still outstanding.", invoiceList(missing)))
	}
	if rounding := r.ByDiscrepancy(domain.DiscrepancyRounding); len(rounding) > 0 {
		recs = append(recs, fmt.Sprintf("Check for systematic rounding in invoicing or bank charges: %d invoice(s) differ by a small amount.", len(rounding)))
	}

	var paidCancelled []domain.ReconciledEntry
	for _, e := range r.Entries {
		if e.Status == domain.StatusCancelled && e.BankCount > 0 {
			paidCancelled = append(paidCancelled, e)
		}
	}
	if len(paidCancelled) > 0 {
		recs = append(recs, fmt.Sprintf("Review the payment cancellation process: %s are cancelled in the ERP but were paid.", invoiceList(paidCancelled)))
	}

	if len(r.Skipped) > 0 {
		recs = append(recs, "Correct the skipped input rows at the source and re-run the reconciliation.")
	}
	if len(recs) == 0 {
		recs = append(recs, "No action required; the ledger and the statement agree.")
	}
	return recs
}

func invoiceList(entries []domain.ReconciledEntry) string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.InvoiceID]; ok {
			continue
		}
		seen[e.InvoiceID] = struct{}{}
		ids = append(ids, e.InvoiceID)
	}
	return strings.Join(ids, ", ")
}

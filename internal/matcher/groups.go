package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"invoice-recon/internal/domain"
)

// MatchGroup holds the bank payments that reference one invoice
type MatchGroup struct {
	InvoiceID    string
	Transactions []domain.BankTransaction
}

// Count is the number of bank payments in the group
func (g MatchGroup) Count() int {
	return len(g.Transactions)
}

// Sum adds up the amounts of the group; an empty group sums to zero
func (g MatchGroup) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range g.Transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// MatchGroups indexes filtered payments by invoice id
type MatchGroups struct {
	byInvoice map[string][]domain.BankTransaction
}

// GroupByInvoice builds the index. Payments sharing an id land in the same
// group, in input order.
func GroupByInvoice(payments []domain.BankTransaction) *MatchGroups {
	byInvoice := make(map[string][]domain.BankTransaction, len(payments))
	for _, p := range payments {
		byInvoice[p.InvoiceID] = append(byInvoice[p.InvoiceID], p)
	}
	return &MatchGroups{byInvoice: byInvoice}
}

// Lookup returns the group for an invoice id by exact comparison. An unknown
// id yields an empty group.
func (g *MatchGroups) Lookup(invoiceID string) MatchGroup {
	return MatchGroup{InvoiceID: invoiceID, Transactions: g.byInvoice[invoiceID]}
}

// Len is the number of distinct invoice ids seen in the bank payments
func (g *MatchGroups) Len() int {
	return len(g.byInvoice)
}

// Orphans lists, sorted, the invoice ids paid in the bank that no ERP
// transaction references.
func (g *MatchGroups) Orphans(erp []domain.ErpTransaction) []string {
	known := make(map[string]struct{}, len(erp))
	for _, tx := range erp {
		known[tx.InvoiceID] = struct{}{}
	}

	orphans := make([]string, 0)
	for id := range g.byInvoice {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans
}

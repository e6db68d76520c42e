package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

// PaymentFilter selects statement lines that pay an invoice and tags them
// with the invoice id found right after the payment marker.
type PaymentFilter struct {
	marker    string
	idPattern *regexp.Regexp
}

// FilterResult is the outcome of filtering a statement
type FilterResult struct {
	Payments    []domain.BankTransaction
	NonPayments int
	Ambiguous   []*domain.AmbiguousPaymentDescriptionError
}

// NewPaymentFilter builds a filter for the given marker. The marker ends in
// "INV", and those letters start the invoice id that follows it.
func NewPaymentFilter(marker string) (*PaymentFilter, error) {
	if err := validateMarker(marker); err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(marker, "INV")
	pattern, err := regexp.Compile(`^` + regexp.QuoteMeta(prefix) + `(INV\d+)`)
	if err != nil {
		return nil, fmt.Errorf("compile invoice pattern: %w", err)
	}
	return &PaymentFilter{marker: marker, idPattern: pattern}, nil
}

// IsPayment reports whether the trimmed description starts with the marker
func (f *PaymentFilter) IsPayment(description string) bool {
	return strings.HasPrefix(strings.TrimSpace(description), f.marker)
}

// ExtractInvoiceID returns the invoice id of a payment description
func (f *PaymentFilter) ExtractInvoiceID(description string) (string, bool) {
	m := f.idPattern.FindStringSubmatch(strings.TrimSpace(description))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Filter keeps payment lines in input order. Lines with the marker but no
// invoice id are collected as ambiguous and dropped.
func (f *PaymentFilter) Filter(transactions []domain.BankTransaction) FilterResult {
	result := FilterResult{
		Payments: make([]domain.BankTransaction, 0, len(transactions)),
	}

	for _, tx := range transactions {
		if !f.IsPayment(tx.Description) {
			result.NonPayments++
			continue
		}

		invoiceID, ok := f.ExtractInvoiceID(tx.Description)
		if !ok {
			ambiguous := &domain.AmbiguousPaymentDescriptionError{Row: tx.Row, Description: tx.Description}
			logger.GetLogger().WithField("row", tx.Row).Debug(ambiguous.Error())
			result.Ambiguous = append(result.Ambiguous, ambiguous)
			continue
		}

		tx.IsPayment = true
		tx.InvoiceID = invoiceID
		result.Payments = append(result.Payments, tx)
	}

	return result
}

package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoice-recon/internal/domain"
)

// Column names of the ingestion contract
const (
	ColumnDate        = "Date"
	ColumnInvoiceID   = "Invoice ID"
	ColumnAmount      = "Amount"
	ColumnStatus      = "Status"
	ColumnDescription = "Description"
)

var invoiceIDPattern = regexp.MustCompile(`^INV\d+$`)

// ErrAmbiguousDate is returned for numeric dates such as 03/04/2025 whose day
// and month could be swapped
var ErrAmbiguousDate = errors.New("ambiguous day and month order")

// NormalizeErpRows converts raw ERP rows into typed transactions. Rows that
// fail are returned as errors; the caller applies the malformed record policy.
func NormalizeErpRows(rows []domain.RawRow) ([]domain.ErpTransaction, []*domain.MalformedRecordError) {
	transactions := make([]domain.ErpTransaction, 0, len(rows))
	var malformed []*domain.MalformedRecordError

	for i, row := range rows {
		tx, err := NormalizeErpRow(i, row)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		transactions = append(transactions, tx)
	}

	return transactions, malformed
}

// NormalizeErpRow maps one ERP row onto an ErpTransaction
func NormalizeErpRow(index int, row domain.RawRow) (domain.ErpTransaction, *domain.MalformedRecordError) {
	fail := func(field string, value interface{}, err error) *domain.MalformedRecordError {
		return &domain.MalformedRecordError{
			Source: domain.SourceERP,
			Row:    index,
			Field:  field,
			Value:  stringValue(value),
			Err:    err,
		}
	}

	rawDate, _ := lookup(row, ColumnDate)
	date, err := parseDate(rawDate)
	if err != nil {
		return domain.ErpTransaction{}, fail(ColumnDate, rawDate, err)
	}

	rawID, _ := lookup(row, ColumnInvoiceID)
	invoiceID, err := parseInvoiceID(rawID)
	if err != nil {
		return domain.ErpTransaction{}, fail(ColumnInvoiceID, rawID, err)
	}

	rawAmount, _ := lookup(row, ColumnAmount)
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return domain.ErpTransaction{}, fail(ColumnAmount, rawAmount, err)
	}

	rawStatus, _ := lookup(row, ColumnStatus)
	status, err := parseStatus(rawStatus)
	if err != nil {
		return domain.ErpTransaction{}, fail(ColumnStatus, rawStatus, err)
	}

	return domain.ErpTransaction{
		Row:       index,
		Date:      date,
		InvoiceID: invoiceID,
		Amount:    amount,
		Status:    status,
	}, nil
}

// NormalizeBankRows converts raw statement rows into bank transactions.
// Payment detection is left to the PaymentFilter.
func NormalizeBankRows(rows []domain.RawRow) ([]domain.BankTransaction, []*domain.MalformedRecordError) {
	transactions := make([]domain.BankTransaction, 0, len(rows))
	var malformed []*domain.MalformedRecordError

	for i, row := range rows {
		tx, err := NormalizeBankRow(i, row)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		transactions = append(transactions, tx)
	}

	return transactions, malformed
}

// NormalizeBankRow maps one statement row onto a BankTransaction. Only the
// description and amount are required; a date is kept when it parses.
func NormalizeBankRow(index int, row domain.RawRow) (domain.BankTransaction, *domain.MalformedRecordError) {
	fail := func(field string, value interface{}, err error) *domain.MalformedRecordError {
		return &domain.MalformedRecordError{
			Source: domain.SourceBank,
			Row:    index,
			Field:  field,
			Value:  stringValue(value),
			Err:    err,
		}
	}

	rawDesc, _ := lookup(row, ColumnDescription)
	description := strings.TrimSpace(stringValue(rawDesc))
	if description == "" {
		return domain.BankTransaction{}, fail(ColumnDescription, rawDesc, domain.ErrMissingField)
	}

	rawAmount, _ := lookup(row, ColumnAmount)
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return domain.BankTransaction{}, fail(ColumnAmount, rawAmount, err)
	}

	tx := domain.BankTransaction{
		Row:         index,
		Description: description,
		Amount:      amount,
	}

	if rawDate, ok := lookup(row, ColumnDate); ok {
		if date, err := parseDate(rawDate); err == nil {
			tx.Date = &date
		}
	}
	if source, ok := row[domain.SourceColumn]; ok {
		tx.Source = stringValue(source)
	}

	return tx, nil
}

// lookup finds a column by exact name first, then ignoring case, spaces,
// underscores and hyphens ("invoice_id" matches "Invoice ID").
func lookup(row domain.RawRow, column string) (interface{}, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	want := normalizeKey(column)
	for k, v := range row {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func normalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(key)))
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func parseInvoiceID(v interface{}) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(stringValue(v)))
	if id == "" {
		return "", domain.ErrMissingField
	}
	if !invoiceIDPattern.MatchString(id) {
		return "", fmt.Errorf("invoice id must be INV followed by digits")
	}
	return id, nil
}

func parseStatus(v interface{}) (domain.ErpStatus, error) {
	status := strings.TrimSpace(stringValue(v))
	switch strings.ToLower(status) {
	case "":
		return "", domain.ErrMissingField
	case "paid":
		return domain.StatusPaid, nil
	case "pending":
		return domain.StatusPending, nil
	case "cancelled", "canceled":
		return domain.StatusCancelled, nil
	}
	return domain.ErpStatus(status), nil
}

// parseAmount accepts numbers of any Go numeric kind and strings written with
// thousands separators, a currency symbol, or accounting parentheses.
func parseAmount(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, domain.ErrMissingField
	case decimal.Decimal:
		return val, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, fmt.Errorf("amount is not a finite number")
		}
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int32:
		return decimal.NewFromInt32(val), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case json.Number:
		return decimal.NewFromString(val.String())
	case string:
		return parseAmountString(val)
	}
	return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
}

func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.ErrMissingField
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.NewReplacer(",", "", " ", "").Replace(s)

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// numericDateLayouts pair day-first and month-first readings of the same
// numeric layout. A date that is valid both ways with different results is
// rejected rather than guessed.
var numericDateLayouts = [][2]string{
	{"2/1/2006", "1/2/2006"},
	{"2/1/06", "1/2/06"},
	{"2-1-2006", "1-2-2006"},
	{"2-1-06", "1-2-06"},
}

// excelEpoch is day zero of spreadsheet serial dates
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts time values, the layouts above, epoch milliseconds (the
// encoding dataframe exports use for dates), and spreadsheet serial days.
// The result is truncated to a UTC calendar date.
func parseDate(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, domain.ErrMissingField
	case time.Time:
		return truncateDate(val), nil
	case float64:
		return dateFromNumber(val)
	case int:
		return dateFromNumber(float64(val))
	case int64:
		return dateFromNumber(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date number: %w", err)
		}
		return dateFromNumber(f)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, domain.ErrMissingField
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateDate(t), nil
			}
		}
		return parseNumericDate(s)
	}
	return time.Time{}, fmt.Errorf("unsupported date type %T", v)
}

func parseNumericDate(s string) (time.Time, error) {
	for _, pair := range numericDateLayouts {
		dayFirst, dayErr := time.Parse(pair[0], s)
		monthFirst, monthErr := time.Parse(pair[1], s)
		switch {
		case dayErr == nil && monthErr == nil:
			if !dayFirst.Equal(monthFirst) {
				return time.Time{}, fmt.Errorf("%w: %s", ErrAmbiguousDate, s)
			}
			return dayFirst, nil
		case dayErr == nil:
			return dayFirst, nil
		case monthErr == nil:
			return monthFirst, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

func dateFromNumber(n float64) (time.Time, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid date number %v", n)
	}
	// Serial days stay far below a million; epoch milliseconds are far above.
	if n < 1e6 {
		return excelEpoch.AddDate(0, 0, int(n)), nil
	}
	return truncateDate(time.UnixMilli(int64(n)).UTC()), nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"invoice-recon/internal/domain"
)

// ErpColumns and BankColumns are the headers each source must carry
var (
	ErpColumns  = []string{"Date", "Invoice ID", "Amount", "Status"}
	BankColumns = []string{"Description", "Amount"}
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// RowParser reads a tabular file into raw rows, handing them to callback in
// batches of at most batchSize.
type RowParser interface {
	Parse(filePath string, batchSize int, callback func([]domain.RawRow) error) error
}

// NewRowParser picks a parser from the file extension. required lists the
// header columns the file must contain.
func NewRowParser(filePath string, required []string) (RowParser, error) {
	source := extractSource(filePath)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return NewCSVRowParser(source, required), nil
	case ".xlsx", ".xlsm":
		return NewXLSXRowParser(source, "", required), nil
	case ".json":
		return NewJSONRowParser(source, required), nil
	case ".pdf":
		return nil, fmt.Errorf("%w: %s (export the statement table to CSV or XLSX first)", ErrUnsupportedFormat, filePath)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
}

// LoadRows reads every row of a file
func LoadRows(filePath string, required []string, batchSize int) ([]domain.RawRow, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("input file not found: %w", err)
	}

	p, err := NewRowParser(filePath, required)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	err = p.Parse(filePath, batchSize, func(batch []domain.RawRow) error {
		rows = append(rows, batch...)
		return nil
	})
	return rows, err
}

func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[normalizeColumn(col)] = i
	}
	return columnMap
}

func normalizeColumn(col string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t', '\uFEFF':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(col)))
}

func validateColumns(columnMap map[string]int, required []string) error {
	var missing []string
	for _, col := range required {
		if _, exists := columnMap[normalizeColumn(col)]; !exists {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid file format: missing required columns (%s)", strings.Join(missing, ", "))
	}
	return nil
}

// buildRow zips a header with one record. Blank header cells are dropped and
// cells past the end of a short record are left absent.
func buildRow(header, record []string, source string) domain.RawRow {
	row := make(domain.RawRow, len(header)+1)
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))
		if name == "" || i >= len(record) {
			continue
		}
		row[name] = strings.TrimSpace(record[i])
	}
	row[domain.SourceColumn] = source
	return row
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// extractSource names a row's origin after its file, e.g. "bank_bca.csv"
func extractSource(filePath string) string {
	return filepath.Base(filePath)
}

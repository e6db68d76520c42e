package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

// XLSXRowParser reads one worksheet of a workbook. The first non-blank row is
// the header.
type XLSXRowParser struct {
	source   string
	sheet    string // empty selects the first sheet
	required []string
}

func NewXLSXRowParser(source, sheet string, required []string) *XLSXRowParser {
	return &XLSXRowParser{source: source, sheet: sheet, required: required}
}

func (p *XLSXRowParser) Parse(filePath string, batchSize int, callback func([]domain.RawRow) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", filePath).Error("Failed to open workbook")
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return fmt.Errorf("workbook %s has no sheets", filePath)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start == len(records) {
		return fmt.Errorf("failed to read header: sheet %q is empty", sheet)
	}

	header := records[start]
	if err := validateColumns(mapColumns(header), p.required); err != nil {
		return err
	}

	batch := make([]domain.RawRow, 0, batchSize)
	for _, record := range records[start+1:] {
		if isBlank(record) {
			continue
		}

		batch = append(batch, buildRow(header, record, p.source))

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return err
			}
			batch = make([]domain.RawRow, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}

	return nil
}

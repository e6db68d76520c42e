package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

// CSVRowParser implements a streaming CSV parser
type CSVRowParser struct {
	source   string
	required []string
}

func NewCSVRowParser(source string, required []string) *CSVRowParser {
	return &CSVRowParser{source: source, required: required}
}

// Parse reads the CSV file in streaming mode and processes it in batches
func (p *CSVRowParser) Parse(filePath string, batchSize int, callback func([]domain.RawRow) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", filePath).Error("Failed to open file")
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.parse(file, batchSize, callback)
}

func (p *CSVRowParser) parse(r io.Reader, batchSize int, callback func([]domain.RawRow) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to read CSV header")
		return fmt.Errorf("failed to read header: %w", err)
	}

	if err := validateColumns(mapColumns(header), p.required); err != nil {
		return err
	}

	batch := make([]domain.RawRow, 0, batchSize)
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read CSV row, skipping")
			continue
		}
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

	// Process remaining items
	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}

	return nil
}

package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"invoice-recon/internal/domain"
)

// JSONRowParser reads a JSON array of objects, the records layout dataframe
// exports produce. Numbers are kept as json.Number so amounts stay exact.
type JSONRowParser struct {
	source   string
	required []string
}

func NewJSONRowParser(source string, required []string) *JSONRowParser {
	return &JSONRowParser{source: source, required: required}
}

func (p *JSONRowParser) Parse(filePath string, batchSize int, callback func([]domain.RawRow) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("invalid JSON rows: expected an array of objects")
	}

	batch := make([]domain.RawRow, 0, batchSize)
	validated := false

	for index := 0; decoder.More(); index++ {
		var row domain.RawRow
		if err := decoder.Decode(&row); err != nil {
			return fmt.Errorf("invalid JSON row %d: %w", index, err)
		}

		if !validated {
			if err := validateColumns(mapColumns(keys(row)), p.required); err != nil {
				return err
			}
			validated = true
		}

		for k, v := range row {
			if s, ok := v.(string); ok {
				row[k] = strings.TrimSpace(s)
			}
		}
		row[domain.SourceColumn] = p.source
		batch = append(batch, row)

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

func keys(row domain.RawRow) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		out = append(out, k)
	}
	return out
}

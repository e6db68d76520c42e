package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"invoice-recon/internal/domain"
)

const (
	entriesSheet = "Reconciliation"
	summarySheet = "Summary"
)

// WriteXLSX writes the entries and a category summary as a workbook
func (r *Report) WriteXLSX(w io.Writer) error {
	f, err := r.workbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path
func (r *Report) SaveXLSX(path string) error {
	f, err := r.workbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (r *Report) workbook() (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(domain.RecordColumns))
	for i, col := range domain.RecordColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(entriesSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, e := range r.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{
			e.Date.Format(domain.DateLayout),
			e.InvoiceID,
			e.Amount.InexactFloat64(),
			string(e.Status),
			e.AmountBank.InexactFloat64(),
			e.BankCount,
			string(e.Discrepancy),
			e.MismatchAmount.InexactFloat64(),
		}
		if err := f.SetSheetRow(entriesSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := r.styleEntries(f); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, err
	}
	summary := [][]interface{}{
		{"Category", "Count"},
	}
	for _, d := range domain.Discrepancies {
		summary = append(summary, []interface{}{string(d), r.Totals.Count(d)})
	}
	summary = append(summary,
		[]interface{}{"Total", r.Totals.TotalEntries},
		[]interface{}{"Reconciliation rate (%)", r.Totals.ReconciliationRate().InexactFloat64()},
	)
	for i, row := range summary {
		row := row
		if err := f.SetSheetRow(summarySheet, "A"+strconv.Itoa(i+1), &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func (r *Report) styleEntries(f *excelize.File) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(entriesSheet, "A1", "H1", bold); err != nil {
		return err
	}

	if len(r.Entries) > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return err
		}
		last := strconv.Itoa(len(r.Entries) + 1)
		for _, col := range []string{"C", "E", "H"} {
			if err := f.SetCellStyle(entriesSheet, col+"2", col+last, money); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(entriesSheet, "A", "H", 18)
}

// WriteCSV writes the entries with the record header
func (r *Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(domain.RecordColumns); err != nil {
		return err
	}

	for _, rec := range r.Records() {
		err := writer.Write([]string{
			rec.Date,
			rec.InvoiceID,
			rec.Amount.String(),
			rec.Status,
			rec.AmountBank.String(),
			strconv.Itoa(rec.BankCount),
			rec.Discrepancy,
			rec.MismatchAmount.String(),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the entries as an indented JSON array of records
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.Records())
}

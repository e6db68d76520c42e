package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"invoice-recon/internal/config"
	"invoice-recon/internal/domain"
	"invoice-recon/internal/matcher"
	"invoice-recon/internal/parser"
	"invoice-recon/internal/report"
	"invoice-recon/pkg/logger"
)

// stringArray collects a flag given more than once
type stringArray []string

func (s *stringArray) String() string {
	return strings.Join(*s, ",")
}

func (s *stringArray) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "reconcile:", err)
		os.Exit(1)
	}
}

// run executes one reconciliation. The summary goes to stdout and log
// records to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var bank stringArray
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	erp := fs.String("erp", "", "ERP export (.xlsx, .csv or .json)")
	fs.Var(&bank, "bank", "bank statement table (.csv, .xlsx or .json); repeat for several statements")
	out := fs.String("out", filepath.Join(cfg.Report.OutputDir, report.OutputFileName), "reconciled workbook to write")
	summary := fs.String("report", filepath.Join(cfg.Report.OutputDir, report.SummaryFileName), "Markdown summary to write")
	jsonOut := fs.String("json", "", "also write the reconciled records as JSON to this path")
	policy := fs.String("policy", cfg.Reconciliation.OnMalformedRecord, "malformed row policy: skip or abort")
	logLevel := fs.String("log-level", cfg.App.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *erp == "" || len(bank) == 0 {
		fs.Usage()
		return fmt.Errorf("-erp and at least one -bank are required")
	}

	logger.Init(*logLevel)
	logger.GetLogger().SetOutput(stderr)

	cfg.Reconciliation.OnMalformedRecord = *policy
	engineCfg, err := cfg.Reconciliation.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := matcher.NewReconciliationEngine(engineCfg)
	if err != nil {
		return err
	}

	erpRows, err := parser.LoadRows(*erp, parser.ErpColumns, cfg.App.BatchSize)
	if err != nil {
		return fmt.Errorf("load ERP data: %w", err)
	}

	var bankRows []domain.RawRow
	for _, path := range bank {
		rows, err := parser.LoadRows(path, parser.BankColumns, cfg.App.BatchSize)
		if err != nil {
			return fmt.Errorf("load bank statement: %w", err)
		}
		bankRows = append(bankRows, rows...)
	}

	output, err := engine.Reconcile(matcher.ReconciliationInput{ErpRows: erpRows, BankRows: bankRows})
	if err != nil {
		return err
	}

	r := report.FromOutput(uuid.New().String(), output)
	r.ErpSource = filepath.Base(*erp)
	for _, path := range bank {
		r.BankSources = append(r.BankSources, filepath.Base(path))
	}

	if err := r.SaveXLSX(*out); err != nil {
		return err
	}
	if err := writeFile(*summary, r.WriteMarkdown); err != nil {
		return err
	}
	if *jsonOut != "" {
		if err := writeFile(*jsonOut, r.WriteJSON); err != nil {
			return err
		}
	}

	printSummary(stdout, r)
	fmt.Fprintf(stdout, "\nReconciled data saved to %s\nSummary report saved to %s\n", *out, *summary)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printSummary(w io.Writer, r *report.Report) {
	fmt.Fprintln(w, "Reconciliation Summary")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "ERP transactions reconciled: %d\n", r.Totals.TotalEntries)
	for _, d := range domain.Discrepancies {
		fmt.Fprintf(w, "  %-20s %d\n", d+":", r.Totals.Count(d))
	}
	fmt.Fprintf(w, "Reconciliation rate: %s%%\n", r.Totals.ReconciliationRate())
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped malformed rows: %d\n", len(r.Skipped))
	}
}

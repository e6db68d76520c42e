package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/matcher"
	"invoice-recon/internal/metrics"
	"invoice-recon/internal/parser"
	"invoice-recon/internal/report"
	"invoice-recon/internal/repository"
	"invoice-recon/pkg/logger"
)

// ErrInvalidRequest marks errors caused by the caller's input
var ErrInvalidRequest = errors.New("invalid request")

// inlineSource names rows that arrived in a request body rather than a file
const inlineSource = "request"

// ReconcileRequest describes a file based run. When ErpFilePath is empty the
// stored ERP ledger between StartDate and EndDate is used instead.
type ReconcileRequest struct {
	ErpFilePath       string
	BankFilePaths     []string
	OnMalformedRecord string
	StartDate         time.Time
	EndDate           time.Time
}

type ReconciliationService interface {
	Reconcile(req ReconcileRequest) (*domain.ReconciliationSummary, error)
	ReconcileRows(erpRows, bankRows []domain.RawRow, policy string) (*domain.ReconciliationSummary, error)
	GetRun(runID string) (*domain.ReconciliationRun, error)
	GetEntries(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error)
	BuildReport(runID string) (*report.Report, error)
}

type reconciliationService struct {
	invoiceRepo repository.InvoiceRepository
	reconRepo   repository.ReconciliationRepository
	engineCfg   matcher.Config
	metrics     *metrics.Metrics
	batchSize   int
	reportDir   string
}

func NewReconciliationService(
	invoiceRepo repository.InvoiceRepository,
	reconRepo repository.ReconciliationRepository,
	engineCfg matcher.Config,
	m *metrics.Metrics,
	batchSize int,
	reportDir string,
) (ReconciliationService, error) {
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	return &reconciliationService{
		invoiceRepo: invoiceRepo,
		reconRepo:   reconRepo,
		engineCfg:   engineCfg,
		metrics:     m,
		batchSize:   batchSize,
		reportDir:   reportDir,
	}, nil
}

func (s *reconciliationService) Reconcile(req ReconcileRequest) (*domain.ReconciliationSummary, error) {
	if len(req.BankFilePaths) == 0 {
		return nil, fmt.Errorf("%w: at least one bank file path is required", ErrInvalidRequest)
	}
	useLedger := req.ErpFilePath == ""
	if useLedger {
		if req.StartDate.IsZero() || req.EndDate.IsZero() {
			return nil, fmt.Errorf("%w: erp_file_path or start_date and end_date are required", ErrInvalidRequest)
		}
		if req.StartDate.After(req.EndDate) {
			return nil, fmt.Errorf("%w: start date cannot be after end date", ErrInvalidRequest)
		}
	}

	engine, err := s.engineFor(req.OnMalformedRecord)
	if err != nil {
		return nil, err
	}

	erpSource := "ledger"
	if !useLedger {
		erpSource = filepath.Base(req.ErpFilePath)
	}
	bankSources := make([]string, 0, len(req.BankFilePaths))
	for _, path := range req.BankFilePaths {
		bankSources = append(bankSources, filepath.Base(path))
	}

	run, err := s.startRun(erpSource, bankSources, engine)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	var bankRows []domain.RawRow
	for _, path := range req.BankFilePaths {
		rows, err := parser.LoadRows(path, parser.BankColumns, s.batchSize)
		if err != nil {
			return nil, s.failRun(run, started, fmt.Errorf("failed to load bank statement %s: %w", filepath.Base(path), err))
		}
		bankRows = append(bankRows, rows...)
	}

	var output *matcher.ReconciliationOutput
	if useLedger {
		ledger, err := s.loadLedger(req.StartDate, req.EndDate)
		if err != nil {
			return nil, s.failRun(run, started, fmt.Errorf("failed to load ERP ledger: %w", err))
		}
		output, err = engine.ReconcileLedger(ledger, bankRows)
		if err != nil {
			return nil, s.failRun(run, started, err)
		}
	} else {
		erpRows, err := parser.LoadRows(req.ErpFilePath, parser.ErpColumns, s.batchSize)
		if err != nil {
			return nil, s.failRun(run, started, fmt.Errorf("failed to load ERP data: %w", err))
		}
		output, err = engine.Reconcile(matcher.ReconciliationInput{ErpRows: erpRows, BankRows: bankRows})
		if err != nil {
			return nil, s.failRun(run, started, err)
		}
	}

	return s.completeRun(run, started, output)
}

// ReconcileRows runs the engine on rows supplied directly by the caller
func (s *reconciliationService) ReconcileRows(erpRows, bankRows []domain.RawRow, policy string) (*domain.ReconciliationSummary, error) {
	engine, err := s.engineFor(policy)
	if err != nil {
		return nil, err
	}

	run, err := s.startRun(inlineSource, []string{inlineSource}, engine)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	output, err := engine.Reconcile(matcher.ReconciliationInput{ErpRows: erpRows, BankRows: bankRows})
	if err != nil {
		return nil, s.failRun(run, started, err)
	}

	return s.completeRun(run, started, output)
}

func (s *reconciliationService) GetRun(runID string) (*domain.ReconciliationRun, error) {
	return s.reconRepo.GetRunByID(runID)
}

// GetEntries returns the stored entries of a run, optionally narrowed to some
// categories
func (s *reconciliationService) GetEntries(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error) {
	for _, d := range discrepancies {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: unknown discrepancy %q", ErrInvalidRequest, d)
		}
	}

	if _, err := s.reconRepo.GetRunByID(runID); err != nil {
		return nil, err
	}

	if len(discrepancies) == 0 {
		return s.reconRepo.GetEntriesByRunID(runID)
	}
	return s.reconRepo.GetEntriesByRunIDAndDiscrepancy(runID, discrepancies)
}

func (s *reconciliationService) BuildReport(runID string) (*report.Report, error) {
	run, err := s.reconRepo.GetRunByID(runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.Completed {
		return nil, fmt.Errorf("%w: run %s is %s", ErrInvalidRequest, runID, run.Status)
	}

	entries, err := s.reconRepo.GetEntriesByRunID(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	return report.FromRun(run, entries), nil
}

func (s *reconciliationService) engineFor(policy string) (*matcher.ReconciliationEngine, error) {
	cfg := s.engineCfg
	if policy != "" {
		p, err := matcher.ParseMalformedPolicy(policy)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		cfg.OnMalformedRecord = p
	}
	return matcher.NewReconciliationEngine(cfg)
}

func (s *reconciliationService) startRun(erpSource string, bankSources []string, engine *matcher.ReconciliationEngine) (*domain.ReconciliationRun, error) {
	run := &domain.ReconciliationRun{
		RunID:       uuid.New().String(),
		Status:      domain.Processing,
		ErpSource:   erpSource,
		BankSources: bankSources,
		Policy:      string(engine.Config().OnMalformedRecord),
	}

	if err := s.reconRepo.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":       run.RunID,
		"erp_source":   erpSource,
		"bank_sources": bankSources,
		"policy":       run.Policy,
	}).Info("Starting reconciliation run")

	return run, nil
}

func (s *reconciliationService) loadLedger(startDate, endDate time.Time) ([]domain.ErpTransaction, error) {
	var ledger []domain.ErpTransaction
	err := s.invoiceRepo.GetByDateRangeStream(startDate, endDate, s.batchSize, func(batch []domain.ErpTransaction) error {
		ledger = append(ledger, batch...)
		return nil
	})
	return ledger, err
}

func (s *reconciliationService) completeRun(run *domain.ReconciliationRun, started time.Time, output *matcher.ReconciliationOutput) (*domain.ReconciliationSummary, error) {
	if err := s.reconRepo.BulkCreateEntries(run.RunID, output.Entries); err != nil {
		return nil, s.failRun(run, started, fmt.Errorf("failed to save entries: %w", err))
	}

	skipped := output.SkippedRecords()
	run.Status = domain.Completed
	run.ErpRows = output.ErpCount
	run.BankRows = output.BankCount
	run.BankPayments = output.PaymentCount
	run.SkippedRows = len(skipped)
	run.AmbiguousRows = len(output.Ambiguous)
	run.RunTotals = output.Totals()
	run.Skipped = skipped
	run.OrphanInvoices = output.OrphanInvoices

	if err := s.reconRepo.UpdateRun(run); err != nil {
		logger.GetLogger().WithError(err).WithField("run_id", run.RunID).Error("Failed to update run")
	}

	s.metrics.RecordRun(domain.Completed, time.Since(started))
	s.metrics.RecordEntries(run.RunTotals)
	s.metrics.RecordSkipped(skipped)
	s.metrics.RecordAmbiguous(run.AmbiguousRows)

	s.writeArtifacts(run, output.Entries)

	logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"entries":  run.TotalEntries,
		"matched":  run.Matched,
		"skipped":  run.SkippedRows,
		"duration": time.Since(started).String(),
	}).Info("Reconciliation run completed")

	return &domain.ReconciliationSummary{
		RunID:              run.RunID,
		Status:             run.Status,
		Totals:             run.RunTotals,
		ReconciliationRate: run.ReconciliationRate(),
		Skipped:            run.Skipped,
		AmbiguousRows:      run.AmbiguousRows,
		OrphanInvoices:     run.OrphanInvoices,
		Entries:            output.Entries,
	}, nil
}

// failRun marks the run failed and returns err unchanged
func (s *reconciliationService) failRun(run *domain.ReconciliationRun, started time.Time, err error) error {
	msg := err.Error()
	run.Status = domain.Failed
	run.ErrorMessage = &msg

	if updateErr := s.reconRepo.UpdateRun(run); updateErr != nil {
		logger.GetLogger().WithError(updateErr).WithField("run_id", run.RunID).Error("Failed to update run")
	}
	s.metrics.RecordRun(domain.Failed, time.Since(started))

	logger.GetLogger().WithError(err).WithField("run_id", run.RunID).Error("Reconciliation run failed")
	return err
}

func (s *reconciliationService) writeArtifacts(run *domain.ReconciliationRun, entries []domain.ReconciledEntry) {
	if s.reportDir == "" {
		return
	}

	log := logger.GetLogger().WithField("run_id", run.RunID)
	dir := filepath.Join(s.reportDir, run.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Warn("Failed to create report directory")
		return
	}

	// Built the same way BuildReport rebuilds it later
	r := report.FromRun(run, entries)

	if err := r.SaveXLSX(filepath.Join(dir, report.OutputFileName)); err != nil {
		log.WithError(err).Warn("Failed to write reconciled workbook")
	}

	f, err := os.Create(filepath.Join(dir, report.SummaryFileName))
	if err != nil {
		log.WithError(err).Warn("Failed to create summary report")
		return
	}
	defer f.Close()

	if err := r.WriteMarkdown(f); err != nil {
		log.WithError(err).Warn("Failed to write summary report")
	}
}

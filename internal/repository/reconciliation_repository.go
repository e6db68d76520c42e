package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

type ReconciliationRepository interface {
	CreateRun(run *domain.ReconciliationRun) error
	UpdateRun(run *domain.ReconciliationRun) error
	GetRunByID(runID string) (*domain.ReconciliationRun, error)
	BulkCreateEntries(runID string, entries []domain.ReconciledEntry) error
	GetEntriesByRunID(runID string) ([]domain.ReconciledEntry, error)
	GetEntriesByRunIDAndDiscrepancy(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error)
}

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) CreateRun(run *domain.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			run_id, status, erp_source, bank_sources, on_malformed_record
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		run.RunID,
		run.Status,
		run.ErpSource,
		pq.Array(run.BankSources),
		run.Policy,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create reconciliation run")
		return err
	}

	return nil
}

func (r *reconciliationRepository) UpdateRun(run *domain.ReconciliationRun) error {
	query := `
		UPDATE reconciliation_runs
		SET status = $1, erp_rows = $2, bank_rows = $3, bank_payments = $4,
			skipped_rows = $5, ambiguous_rows = $6,
			total_entries = $7, matched = $8, rounding_differences = $9,
			amount_mismatches = $10, duplicates = $11, missing = $12,
			erp_amount = $13, bank_amount = $14, net_mismatch = $15,
			skipped_records = $16, orphan_invoices = $17,
			error_message = $18, updated_at = NOW()
		WHERE run_id = $19
		RETURNING updated_at
	`

	skipped := run.Skipped
	if skipped == nil {
		skipped = []domain.SkippedRecord{}
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("encode skipped records: %w", err)
	}
	orphans := run.OrphanInvoices
	if orphans == nil {
		orphans = []string{}
	}

	err = r.db.QueryRow(
		query,
		run.Status,
		run.ErpRows,
		run.BankRows,
		run.BankPayments,
		run.SkippedRows,
		run.AmbiguousRows,
		run.TotalEntries,
		run.Matched,
		run.RoundingDifferences,
		run.AmountMismatches,
		run.Duplicates,
		run.Missing,
		run.ErpAmount,
		run.BankAmount,
		run.NetMismatch,
		string(skippedJSON),
		pq.Array(orphans),
		run.ErrorMessage,
		run.RunID,
	).Scan(&run.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, run.RunID)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update reconciliation run")
		return err
	}

	return nil
}

func (r *reconciliationRepository) GetRunByID(runID string) (*domain.ReconciliationRun, error) {
	query := `
		SELECT id, run_id, status, erp_source, bank_sources, on_malformed_record,
			   erp_rows, bank_rows, bank_payments, skipped_rows, ambiguous_rows,
			   total_entries, matched, rounding_differences, amount_mismatches,
			   duplicates, missing, erp_amount, bank_amount, net_mismatch,
			   skipped_records, orphan_invoices, error_message, created_at, updated_at
		FROM reconciliation_runs
		WHERE run_id = $1
	`

	var run domain.ReconciliationRun
	var skippedJSON []byte
	err := r.db.QueryRow(query, runID).Scan(
		&run.ID,
		&run.RunID,
		&run.Status,
		&run.ErpSource,
		pq.Array(&run.BankSources),
		&run.Policy,
		&run.ErpRows,
		&run.BankRows,
		&run.BankPayments,
		&run.SkippedRows,
		&run.AmbiguousRows,
		&run.TotalEntries,
		&run.Matched,
		&run.RoundingDifferences,
		&run.AmountMismatches,
		&run.Duplicates,
		&run.Missing,
		&run.ErpAmount,
		&run.BankAmount,
		&run.NetMismatch,
		&skippedJSON,
		pq.Array(&run.OrphanInvoices),
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get reconciliation run")
		return nil, err
	}

	if err := json.Unmarshal(skippedJSON, &run.Skipped); err != nil {
		logger.GetLogger().WithError(err).WithField("run_id", runID).Error("Failed to decode skipped records")
		return nil, fmt.Errorf("decode skipped records of run %s: %w", runID, err)
	}

	return &run, nil
}

// BulkCreateEntries stores the entries of a run in one transaction. The
// position column keeps the engine's ordering for later reads.
func (r *reconciliationRepository) BulkCreateEntries(runID string, entries []domain.ReconciledEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO reconciled_entries (
			run_id, position, invoice_date, invoice_id, amount, status,
			amount_bank, bank_count, discrepancy, mismatch_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for i, entry := range entries {
		_, err = stmt.Exec(
			runID,
			i,
			entry.Date,
			entry.InvoiceID,
			entry.Amount,
			entry.Status,
			entry.AmountBank,
			entry.BankCount,
			entry.Discrepancy,
			entry.MismatchAmount,
		)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("invoice_id", entry.InvoiceID).Error("Failed to insert reconciled entry")
			return fmt.Errorf("insert entry %d of run %s: %w", i, runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func (r *reconciliationRepository) GetEntriesByRunID(runID string) ([]domain.ReconciledEntry, error) {
	query := `
		SELECT invoice_date, invoice_id, amount, status,
			   amount_bank, bank_count, discrepancy, mismatch_amount
		FROM reconciled_entries
		WHERE run_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query reconciled entries")
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetEntriesByRunIDAndDiscrepancy returns the entries of a run in any of the
// given categories
func (r *reconciliationRepository) GetEntriesByRunIDAndDiscrepancy(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error) {
	query := `
		SELECT invoice_date, invoice_id, amount, status,
			   amount_bank, bank_count, discrepancy, mismatch_amount
		FROM reconciled_entries
		WHERE run_id = $1 AND discrepancy = ANY($2)
		ORDER BY position
	`

	categories := make([]string, 0, len(discrepancies))
	for _, d := range discrepancies {
		categories = append(categories, string(d))
	}

	rows, err := r.db.Query(query, runID, pq.Array(categories))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query reconciled entries")
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]domain.ReconciledEntry, error) {
	entries := []domain.ReconciledEntry{}
	for rows.Next() {
		var entry domain.ReconciledEntry
		err := rows.Scan(
			&entry.Date,
			&entry.InvoiceID,
			&entry.Amount,
			&entry.Status,
			&entry.AmountBank,
			&entry.BankCount,
			&entry.Discrepancy,
			&entry.MismatchAmount,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan reconciled entry")
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

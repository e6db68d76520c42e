package repository

import (
	"database/sql"
	"fmt"
	"time"

	"invoice-recon/internal/domain"
	"invoice-recon/pkg/logger"
)

// InvoiceRepository stores the ERP ledger. An invoice id may appear more than
// once; each row is reconciled on its own.
type InvoiceRepository interface {
	Create(inv *domain.ErpTransaction) error
	BulkCreate(invoices []domain.ErpTransaction) error
	GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error)
	GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error)
	GetByDateRangeStream(startDate, endDate time.Time, batchSize int, callback func([]domain.ErpTransaction) error) error
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const selectInvoices = `
	SELECT id, invoice_date, invoice_id, amount, status, created_at, updated_at
	FROM erp_invoices
`

func (r *invoiceRepository) Create(inv *domain.ErpTransaction) error {
	query := `
		INSERT INTO erp_invoices (invoice_date, invoice_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		inv.Date,
		inv.InvoiceID,
		inv.Amount,
		inv.Status,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create invoice")
		return err
	}

	return nil
}

func (r *invoiceRepository) BulkCreate(invoices []domain.ErpTransaction) error {
	if len(invoices) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO erp_invoices (invoice_date, invoice_id, amount, status)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for _, inv := range invoices {
		_, err = stmt.Exec(inv.Date, inv.InvoiceID, inv.Amount, inv.Status)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("invoice_id", inv.InvoiceID).Error("Failed to insert invoice")
			return fmt.Errorf("insert invoice %s: %w", inv.InvoiceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func (r *invoiceRepository) GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error) {
	rows, err := r.db.Query(selectInvoices+`WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query invoice")
		return nil, err
	}
	defer rows.Close()

	invoices, err := scanInvoices(rows)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
	}

	return invoices, nil
}

func (r *invoiceRepository) GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error) {
	rows, err := r.db.Query(selectInvoices+`WHERE invoice_date >= $1 AND invoice_date <= $2 ORDER BY id`, startDate, endDate)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query invoices")
		return nil, err
	}
	defer rows.Close()

	return scanInvoices(rows)
}

// GetByDateRangeStream hands the ledger to callback in batches so a large
// ledger is never held in one slice by the repository
func (r *invoiceRepository) GetByDateRangeStream(startDate, endDate time.Time, batchSize int, callback func([]domain.ErpTransaction) error) error {
	rows, err := r.db.Query(selectInvoices+`WHERE invoice_date >= $1 AND invoice_date <= $2 ORDER BY id`, startDate, endDate)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query invoices")
		return err
	}
	defer rows.Close()

	batch := make([]domain.ErpTransaction, 0, batchSize)
	row := 0
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return err
		}
		inv.Row = row
		row++

		batch = append(batch, inv)

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return err
			}
			batch = make([]domain.ErpTransaction, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}

	return rows.Err()
}

func scanInvoices(rows *sql.Rows) ([]domain.ErpTransaction, error) {
	invoices := []domain.ErpTransaction{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		inv.Row = len(invoices)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(rows *sql.Rows) (domain.ErpTransaction, error) {
	var inv domain.ErpTransaction
	err := rows.Scan(
		&inv.ID,
		&inv.Date,
		&inv.InvoiceID,
		&inv.Amount,
		&inv.Status,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to scan invoice")
		return inv, err
	}
	inv.Date = inv.Date.UTC()
	return inv, nil
}

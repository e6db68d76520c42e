package service

import (
	"fmt"
	"strings"
	"time"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/matcher"
	"invoice-recon/internal/repository"
	"invoice-recon/pkg/logger"
)

// InvoiceService maintains the ERP ledger. Incoming rows go through the same
// normalization as file rows, so a malformed row is reported as a
// *domain.MalformedRecordError.
type InvoiceService interface {
	Create(row domain.RawRow) (*domain.ErpTransaction, error)
	BulkCreate(rows []domain.RawRow) (int, error)
	GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error)
	GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error)
}

type invoiceService struct {
	repo repository.InvoiceRepository
}

func NewInvoiceService(repo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{repo: repo}
}

func (s *invoiceService) Create(row domain.RawRow) (*domain.ErpTransaction, error) {
	inv, malformed := matcher.NormalizeErpRow(0, row)
	if malformed != nil {
		return nil, malformed
	}

	if err := s.repo.Create(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// BulkCreate stores all rows or none of them
func (s *invoiceService) BulkCreate(rows []domain.RawRow) (int, error) {
	invoices, malformed := matcher.NormalizeErpRows(rows)
	if len(malformed) > 0 {
		logger.GetLogger().WithField("malformed", len(malformed)).Warn("Rejecting invoice batch")
		return 0, malformed[0]
	}

	if err := s.repo.BulkCreate(invoices); err != nil {
		return 0, err
	}
	return len(invoices), nil
}

func (s *invoiceService) GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error) {
	invoiceID = strings.ToUpper(strings.TrimSpace(invoiceID))
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice ID cannot be empty", ErrInvalidRequest)
	}
	return s.repo.GetByInvoiceID(invoiceID)
}

func (s *invoiceService) GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start date cannot be after end date", ErrInvalidRequest)
	}
	return s.repo.GetByDateRange(startDate, endDate)
}

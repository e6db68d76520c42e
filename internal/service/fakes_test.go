package service_test

import (
	"fmt"
	"sync"
	"time"

	"invoice-recon/internal/domain"
)

type fakeReconRepo struct {
	mu        sync.Mutex
	runs      map[string]*domain.ReconciliationRun
	entries   map[string][]domain.ReconciledEntry
	failSaves bool
}

func newFakeReconRepo() *fakeReconRepo {
	return &fakeReconRepo{
		runs:    make(map[string]*domain.ReconciliationRun),
		entries: make(map[string][]domain.ReconciledEntry),
	}
}

func (r *fakeReconRepo) CreateRun(run *domain.ReconciliationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ID = len(r.runs) + 1
	run.CreatedAt = time.Now()
	copied := *run
	r.runs[run.RunID] = &copied
	return nil
}

func (r *fakeReconRepo) UpdateRun(run *domain.ReconciliationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.RunID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, run.RunID)
	}
	run.UpdatedAt = time.Now()
	copied := *run
	r.runs[run.RunID] = &copied
	return nil
}

func (r *fakeReconRepo) GetRunByID(runID string) (*domain.ReconciliationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	copied := *run
	return &copied, nil
}

func (r *fakeReconRepo) BulkCreateEntries(runID string, entries []domain.ReconciledEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaves {
		return fmt.Errorf("connection refused")
	}
	r.entries[runID] = append([]domain.ReconciledEntry(nil), entries...)
	return nil
}

func (r *fakeReconRepo) GetEntriesByRunID(runID string) ([]domain.ReconciledEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[runID], nil
}

func (r *fakeReconRepo) GetEntriesByRunIDAndDiscrepancy(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReconciledEntry
	for _, e := range r.entries[runID] {
		for _, d := range discrepancies {
			if e.Discrepancy == d {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices []domain.ErpTransaction
}

func (r *fakeInvoiceRepo) Create(inv *domain.ErpTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv.ID = len(r.invoices) + 1
	r.invoices = append(r.invoices, *inv)
	return nil
}

func (r *fakeInvoiceRepo) BulkCreate(invoices []domain.ErpTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range invoices {
		inv.ID = len(r.invoices) + 1
		r.invoices = append(r.invoices, inv)
	}
	return nil
}

func (r *fakeInvoiceRepo) GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ErpTransaction
	for _, inv := range r.invoices {
		if inv.InvoiceID == invoiceID {
			out = append(out, inv)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ErpTransaction{}
	for _, inv := range r.invoices {
		if !inv.Date.Before(startDate) && !inv.Date.After(endDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) GetByDateRangeStream(startDate, endDate time.Time, batchSize int, callback func([]domain.ErpTransaction) error) error {
	all, _ := r.GetByDateRange(startDate, endDate)
	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := callback(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

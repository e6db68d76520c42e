package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/handler"
	"invoice-recon/internal/metrics"
	"invoice-recon/internal/report"
	"invoice-recon/internal/service"
	"invoice-recon/pkg/response"
)

var testDay = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

func testEntries() []domain.ReconciledEntry {
	return []domain.ReconciledEntry{
		{
			Date: testDay, InvoiceID: "INV0001", Amount: decimal.RequireFromString("267.10"),
			Status: domain.StatusPaid, AmountBank: decimal.RequireFromString("267.10"),
			BankCount: 1, Discrepancy: domain.DiscrepancyMatch, MismatchAmount: decimal.Zero,
		},
		{
			Date: testDay, InvoiceID: "INV0002", Amount: decimal.RequireFromString("88.00"),
			Status: domain.StatusPending, AmountBank: decimal.Zero,
			Discrepancy: domain.DiscrepancyMissing, MismatchAmount: decimal.RequireFromString("88.00"),
		},
	}
}

type fakeReconService struct {
	lastRequest  service.ReconcileRequest
	lastRows     [2][]domain.RawRow
	lastPolicy   string
	lastFilter   []domain.Discrepancy
	reconcileErr error
}

func (s *fakeReconService) summary() *domain.ReconciliationSummary {
	var totals domain.RunTotals
	for _, e := range testEntries() {
		totals.Add(e)
	}
	return &domain.ReconciliationSummary{
		RunID:              "run-1",
		Status:             domain.Completed,
		Totals:             totals,
		ReconciliationRate: totals.ReconciliationRate(),
		Entries:            testEntries(),
	}
}

func (s *fakeReconService) Reconcile(req service.ReconcileRequest) (*domain.ReconciliationSummary, error) {
	s.lastRequest = req
	if s.reconcileErr != nil {
		return nil, s.reconcileErr
	}
	return s.summary(), nil
}

func (s *fakeReconService) ReconcileRows(erpRows, bankRows []domain.RawRow, policy string) (*domain.ReconciliationSummary, error) {
	s.lastRows = [2][]domain.RawRow{erpRows, bankRows}
	s.lastPolicy = policy
	if s.reconcileErr != nil {
		return nil, s.reconcileErr
	}
	return s.summary(), nil
}

func (s *fakeReconService) GetRun(runID string) (*domain.ReconciliationRun, error) {
	if runID != "run-1" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	return &domain.ReconciliationRun{RunID: runID, Status: domain.Completed}, nil
}

func (s *fakeReconService) GetEntries(runID string, discrepancies []domain.Discrepancy) ([]domain.ReconciledEntry, error) {
	s.lastFilter = discrepancies
	if runID != "run-1" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	for _, d := range discrepancies {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: unknown discrepancy %q", service.ErrInvalidRequest, d)
		}
	}
	return testEntries(), nil
}

func (s *fakeReconService) BuildReport(runID string) (*report.Report, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	var totals domain.RunTotals
	for _, e := range testEntries() {
		totals.Add(e)
	}
	run.RunTotals = totals
	return report.FromRun(run, testEntries()), nil
}

type fakeInvoiceService struct {
	created []domain.RawRow
}

func (s *fakeInvoiceService) Create(row domain.RawRow) (*domain.ErpTransaction, error) {
	if _, ok := row["Invoice ID"]; !ok {
		return nil, &domain.MalformedRecordError{Source: domain.SourceERP, Field: "Invoice ID", Err: domain.ErrMissingField}
	}
	s.created = append(s.created, row)
	return &domain.ErpTransaction{ID: len(s.created), InvoiceID: fmt.Sprint(row["Invoice ID"])}, nil
}

func (s *fakeInvoiceService) BulkCreate(rows []domain.RawRow) (int, error) {
	s.created = append(s.created, rows...)
	return len(rows), nil
}

func (s *fakeInvoiceService) GetByInvoiceID(invoiceID string) ([]domain.ErpTransaction, error) {
	if invoiceID != "INV0001" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
	}
	return []domain.ErpTransaction{{ID: 1, InvoiceID: invoiceID}}, nil
}

func (s *fakeInvoiceService) GetByDateRange(startDate, endDate time.Time) ([]domain.ErpTransaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start date cannot be after end date", service.ErrInvalidRequest)
	}
	return []domain.ErpTransaction{{ID: 1, InvoiceID: "INV0001", Date: startDate}}, nil
}

type testServer struct {
	router   *gin.Engine
	recon    *fakeReconService
	invoices *fakeInvoiceService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	s := &testServer{recon: &fakeReconService{}, invoices: &fakeInvoiceService{}}
	s.router = handler.NewRouter(
		handler.NewReconciliationHandler(s.recon),
		handler.NewInvoiceHandler(s.invoices),
		metrics.New(),
	)
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = s.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recon_http_request_duration_seconds")
}

func TestReconcile(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/v1/reconcile", `{
		"erp_file_path": "/data/erp_data.xlsx",
		"bank_file_paths": ["/data/bank_statement.csv"],
		"on_malformed_record": "abort"
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "/data/erp_data.xlsx", s.recon.lastRequest.ErpFilePath)
	assert.Equal(t, "abort", s.recon.lastRequest.OnMalformedRecord)
	assert.True(t, s.recon.lastRequest.StartDate.IsZero())

	var body struct {
		Data struct {
			RunID   string                   `json:"run_id"`
			Entries []map[string]interface{} `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.Data.RunID)
	require.Len(t, body.Data.Entries, 2)
	assert.Equal(t, "INV0001", body.Data.Entries[0]["Invoice ID"])
	assert.Equal(t, "Missing in Bank", body.Data.Entries[1]["Discrepancy"])
	assert.Equal(t, 88.0, body.Data.Entries[1]["Mismatch Amount"])
}

func TestReconcile_LedgerDates(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/v1/reconcile", `{
		"bank_file_paths": ["bank.csv"],
		"start_date": "2025-01-01",
		"end_date": "2025-01-31"
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), s.recon.lastRequest.EndDate)

	w = s.do(http.MethodPost, "/api/v1/reconcile", `{"bank_file_paths": ["bank.csv"], "start_date": "01/01/2025"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing bank files",
			body:     `{"erp_file_path": "erp.csv"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "unknown policy",
			body:     `{"bank_file_paths": ["b.csv"], "on_malformed_record": "ignore"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "invalid request",
			err:      fmt.Errorf("%w: erp_file_path or start_date and end_date are required", service.ErrInvalidRequest),
			body:     `{"bank_file_paths": ["b.csv"]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "BAD_REQUEST",
		},
		{
			name: "aborted run",
			err: &domain.ReconciliationFailure{
				Stage: "erp normalization",
				Err:   &domain.MalformedRecordError{Source: domain.SourceERP, Row: 3, Field: "Date", Err: domain.ErrMissingField},
			},
			body:     `{"erp_file_path": "erp.csv", "bank_file_paths": ["b.csv"]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "RECONCILIATION_FAILED",
		},
		{
			name:     "storage failure",
			err:      fmt.Errorf("failed to create run: connection refused"),
			body:     `{"erp_file_path": "erp.csv", "bank_file_paths": ["b.csv"]}`,
			wantCode: http.StatusInternalServerError,
			wantErr:  "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.recon.reconcileErr = tt.err

			w := s.do(http.MethodPost, "/api/v1/reconcile", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			body := decode(t, w)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantErr, body.Error.Code)
		})
	}
}

func TestReconcileRows_KeepsNumbersExact(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/v1/reconcile/rows", `{
		"erp_rows": [{"Date": "2025-02-10", "Invoice ID": "INV0001", "Amount": 267.10, "Status": "Paid"}],
		"bank_rows": [{"Description": "Payment INV0001", "Amount": 267.10}],
		"on_malformed_record": "skip"
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, s.recon.lastRows[0], 1)
	assert.Equal(t, json.Number("267.10"), s.recon.lastRows[0][0]["Amount"])
	assert.Equal(t, "skip", s.recon.lastPolicy)

	w = s.do(http.MethodPost, "/api/v1/reconcile/rows", `{"erp_rows": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"COMPLETED"`)

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEntries_Filter(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/entries?discrepancy=Missing%20in%20Bank,Duplicate%20in%20Bank&discrepancy=Match", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []domain.Discrepancy{
		domain.DiscrepancyMissing, domain.DiscrepancyDuplicate, domain.DiscrepancyMatch,
	}, s.recon.lastFilter)

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/entries?discrepancy=Close", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "## Overall Reconciliation Rate")
	assert.Contains(t, w.Body.String(), "1 of 2 ERP transactions matched exactly (50%)")

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/unknown/report", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciled_run-1.xlsx")
	assert.Greater(t, w.Body.Len(), 0)

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Date,Invoice ID,Amount,Status,Amount_bank,Bank Count,Discrepancy,Mismatch Amount"))

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/export?format=json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	w = s.do(http.MethodGet, "/api/v1/reconcile/runs/run-1/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoices(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/v1/invoices", `{"Date": "2025-02-10", "Invoice ID": "INV0001", "Amount": 10.5, "Status": "Paid"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, s.invoices.created, 1)
	assert.Equal(t, json.Number("10.5"), s.invoices.created[0]["Amount"])

	w = s.do(http.MethodPost, "/api/v1/invoices", `{"Date": "2025-02-10", "Amount": 10.5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	w = s.do(http.MethodPost, "/api/v1/invoices/bulk", `{"invoices": [{"Invoice ID": "INV0002"}, {"Invoice ID": "INV0003"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = s.do(http.MethodPost, "/api/v1/invoices/bulk", `{"invoices": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/invoices/INV0001", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/invoices/INV0404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invoice not found", decode(t, w).Message)
}

func TestGetInvoicesByDateRange(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/v1/invoices?start_date=2025-01-01&end_date=2025-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.do(http.MethodGet, "/api/v1/invoices?start_date=2025-01-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/invoices?start_date=2025-02-01&end_date=2025-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/invoices?start_date=yesterday&end_date=2025-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

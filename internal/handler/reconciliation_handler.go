package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/service"
	"invoice-recon/pkg/logger"
	"invoice-recon/pkg/response"
)

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

type ReconcileRequest struct {
	ErpFilePath       string   `json:"erp_file_path"`
	BankFilePaths     []string `json:"bank_file_paths" binding:"required,min=1"`
	OnMalformedRecord string   `json:"on_malformed_record" binding:"omitempty,oneof=skip abort"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
}

type ReconcileRowsRequest struct {
	ErpRows           []domain.RawRow `json:"erp_rows"`
	BankRows          []domain.RawRow `json:"bank_rows"`
	OnMalformedRecord string          `json:"on_malformed_record"`
}

// Reconcile godoc
// @Summary Reconcile ERP invoices against bank statements
// @Description Load the ERP file (or the stored ledger for a date range) and the bank statement files, then classify every invoice
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Reconciliation request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	var startDate, endDate time.Time
	var err error
	if req.StartDate != "" {
		if startDate, err = time.Parse(domain.DateLayout, req.StartDate); err != nil {
			response.BadRequest(c, "Invalid start_date format", "Use YYYY-MM-DD format")
			return
		}
	}
	if req.EndDate != "" {
		if endDate, err = time.Parse(domain.DateLayout, req.EndDate); err != nil {
			response.BadRequest(c, "Invalid end_date format", "Use YYYY-MM-DD format")
			return
		}
	}

	summary, err := h.service.Reconcile(service.ReconcileRequest{
		ErpFilePath:       req.ErpFilePath,
		BankFilePaths:     req.BankFilePaths,
		OnMalformedRecord: req.OnMalformedRecord,
		StartDate:         startDate,
		EndDate:           endDate,
	})
	if err != nil {
		respondError(c, "Reconciliation failed", err)
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation completed successfully", summary)
}

// ReconcileRows godoc
// @Summary Reconcile raw rows
// @Description Reconcile ERP and bank rows given directly as column-to-value objects
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ReconcileRowsRequest true "Raw rows"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/rows [post]
func (h *ReconciliationHandler) ReconcileRows(c *gin.Context) {
	var req ReconcileRowsRequest
	if err := decodeJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request", err.Error())
		return
	}

	summary, err := h.service.ReconcileRows(req.ErpRows, req.BankRows, req.OnMalformedRecord)
	if err != nil {
		respondError(c, "Reconciliation failed", err)
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation completed successfully", summary)
}

// GetRun godoc
// @Summary Get reconciliation run
// @Description Get the status and totals of a reconciliation run
// @Tags reconciliation
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id} [get]
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Param("run_id"))
	if err != nil {
		respondError(c, "Failed to get run", err)
		return
	}

	response.Success(c, http.StatusOK, "Run retrieved successfully", run)
}

// GetEntries godoc
// @Summary List reconciled entries
// @Description List the entries of a run, optionally filtered by discrepancy category
// @Tags reconciliation
// @Produce json
// @Param run_id path string true "Run ID"
// @Param discrepancy query []string false "Discrepancy categories" collectionFormat(multi)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id}/entries [get]
func (h *ReconciliationHandler) GetEntries(c *gin.Context) {
	var discrepancies []domain.Discrepancy
	for _, value := range c.QueryArray("discrepancy") {
		for _, d := range strings.Split(value, ",") {
			if d = strings.TrimSpace(d); d != "" {
				discrepancies = append(discrepancies, domain.Discrepancy(d))
			}
		}
	}

	entries, err := h.service.GetEntries(c.Param("run_id"), discrepancies)
	if err != nil {
		respondError(c, "Failed to get entries", err)
		return
	}

	response.Success(c, http.StatusOK, "Entries retrieved successfully", entries)
}

// GetReport godoc
// @Summary Get the summary report
// @Description Render the Markdown summary report of a completed run
// @Tags reconciliation
// @Produce text/markdown
// @Param run_id path string true "Run ID"
// @Success 200 {string} string
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id}/report [get]
func (h *ReconciliationHandler) GetReport(c *gin.Context) {
	r, err := h.service.BuildReport(c.Param("run_id"))
	if err != nil {
		respondError(c, "Failed to build report", err)
		return
	}

	var buf bytes.Buffer
	if err := r.WriteMarkdown(&buf); err != nil {
		respondError(c, "Failed to render report", err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

// Export godoc
// @Summary Export reconciled entries
// @Description Download the entries of a completed run as xlsx (default), csv or json
// @Tags reconciliation
// @Produce application/octet-stream
// @Param run_id path string true "Run ID"
// @Param format query string false "xlsx, csv or json"
// @Success 200 {file} file
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id}/export [get]
func (h *ReconciliationHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))

	var contentType string
	switch format {
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		contentType = "text/csv; charset=utf-8"
	case "json":
		contentType = "application/json; charset=utf-8"
	default:
		response.BadRequest(c, "Invalid format", "Use xlsx, csv or json")
		return
	}

	r, err := h.service.BuildReport(c.Param("run_id"))
	if err != nil {
		respondError(c, "Failed to build export", err)
		return
	}

	var buf bytes.Buffer
	switch format {
	case "xlsx":
		err = r.WriteXLSX(&buf)
	case "csv":
		err = r.WriteCSV(&buf)
	case "json":
		err = r.WriteJSON(&buf)
	}
	if err != nil {
		respondError(c, "Failed to write export", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reconciled_%s.%s"`, r.RunID, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

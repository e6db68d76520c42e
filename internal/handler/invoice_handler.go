package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/service"
	"invoice-recon/pkg/response"
)

type InvoiceHandler struct {
	service service.InvoiceService
}

func NewInvoiceHandler(service service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// BulkCreateInvoicesRequest carries ERP rows with the columns Date,
// Invoice ID, Amount and Status
type BulkCreateInvoicesRequest struct {
	Invoices []domain.RawRow `json:"invoices"`
}

type GetInvoicesByDateRangeRequest struct {
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
}

// CreateInvoice godoc
// @Summary Add an invoice to the ERP ledger
// @Description Store one ERP row; it goes through the same normalization as file rows
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body object true "ERP row: Date, Invoice ID, Amount, Status"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var row domain.RawRow
	if err := decodeJSON(c, &row); err != nil {
		response.BadRequest(c, "Invalid request", err.Error())
		return
	}

	inv, err := h.service.Create(row)
	if err != nil {
		respondError(c, "Failed to create invoice", err)
		return
	}

	response.Success(c, http.StatusCreated, "Invoice created successfully", inv)
}

// BulkCreateInvoices godoc
// @Summary Bulk add invoices
// @Description Store many ERP rows at once; a single malformed row rejects the batch
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoices body BulkCreateInvoicesRequest true "ERP rows"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/invoices/bulk [post]
func (h *InvoiceHandler) BulkCreateInvoices(c *gin.Context) {
	var req BulkCreateInvoicesRequest
	if err := decodeJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request", err.Error())
		return
	}
	if len(req.Invoices) == 0 {
		response.ValidationError(c, "invoices must contain at least one row")
		return
	}

	count, err := h.service.BulkCreate(req.Invoices)
	if err != nil {
		respondError(c, "Failed to bulk create invoices", err)
		return
	}

	response.Success(c, http.StatusCreated, "Invoices created successfully", gin.H{
		"count": count,
	})
}

// GetInvoice godoc
// @Summary Get ledger rows of an invoice
// @Description Get every ERP ledger row carrying the invoice id
// @Tags invoices
// @Produce json
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/invoices/{invoice_id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoices, err := h.service.GetByInvoiceID(c.Param("invoice_id"))
	if err != nil {
		respondError(c, "Failed to get invoice", err)
		return
	}

	response.Success(c, http.StatusOK, "Invoice retrieved successfully", invoices)
}

// GetInvoicesByDateRange godoc
// @Summary List invoices by date range
// @Description List ERP ledger rows dated within the range, both ends inclusive
// @Tags invoices
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/invoices [get]
func (h *InvoiceHandler) GetInvoicesByDateRange(c *gin.Context) {
	var req GetInvoicesByDateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	startDate, err := time.Parse(domain.DateLayout, req.StartDate)
	if err != nil {
		response.BadRequest(c, "Invalid start_date format", "Use YYYY-MM-DD format")
		return
	}

	endDate, err := time.Parse(domain.DateLayout, req.EndDate)
	if err != nil {
		response.BadRequest(c, "Invalid end_date format", "Use YYYY-MM-DD format")
		return
	}

	invoices, err := h.service.GetByDateRange(startDate, endDate)
	if err != nil {
		respondError(c, "Failed to get invoices", err)
		return
	}

	response.Success(c, http.StatusOK, "Invoices retrieved successfully", gin.H{
		"count":    len(invoices),
		"invoices": invoices,
	})
}

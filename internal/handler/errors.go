package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"invoice-recon/internal/domain"
	"invoice-recon/internal/parser"
	"invoice-recon/internal/service"
	"invoice-recon/pkg/logger"
	"invoice-recon/pkg/response"
)

// respondError maps service errors onto the response envelope
func respondError(c *gin.Context, message string, err error) {
	var failure *domain.ReconciliationFailure
	var malformed *domain.MalformedRecordError

	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		response.NotFound(c, "Reconciliation run not found")
	case errors.Is(err, domain.ErrInvoiceNotFound):
		response.NotFound(c, "Invoice not found")
	case errors.As(err, &failure):
		response.UnprocessableEntity(c, message, err.Error())
	case errors.As(err, &malformed):
		response.ValidationError(c, err.Error())
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, os.ErrNotExist):
		response.BadRequest(c, message, err.Error())
	default:
		logger.GetLogger().WithError(err).Error(message)
		response.InternalError(c, message, err.Error())
	}
}

// decodeJSON reads the request body keeping numbers as json.Number, so
// amounts in raw rows reach the normalizer without a float round trip
func decodeJSON(c *gin.Context, v interface{}) error {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

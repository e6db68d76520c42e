package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the id of the current request
const RequestIDKey = "request_id"

// Error codes of the envelope
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
	CodeValidation           = "VALIDATION_ERROR"
	CodeReconciliationFailed = "RECONCILIATION_FAILED"
)

// Response is the envelope of every JSON reply of the API. RequestID echoes
// the X-Request-ID of the call so a reply can be found in the logs.
type Response struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success:   true,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Data:      data,
	})
}

func Error(c *gin.Context, statusCode int, code, message, details string) {
	c.JSON(statusCode, Response{
		Success:   false,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequest(c *gin.Context, message, details string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message, details)
}

func InternalError(c *gin.Context, message, details string) {
	Error(c, http.StatusInternalServerError, CodeInternal, message, details)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message, "")
}

// ValidationError reports input rows or fields that failed normalization
func ValidationError(c *gin.Context, details string) {
	Error(c, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", details)
}

// UnprocessableEntity reports a well-formed request whose input data could not
// be reconciled, e.g. a malformed row under the abort policy
func UnprocessableEntity(c *gin.Context, message, details string) {
	Error(c, http.StatusUnprocessableEntity, CodeReconciliationFailed, message, details)
}

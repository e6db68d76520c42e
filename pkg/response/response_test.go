package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-recon/pkg/response"
)

func record(t *testing.T, write func(c *gin.Context)) (int, response.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	write(c)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccess(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		response.Success(c, http.StatusCreated, "created", map[string]int{"n": 1})
	})

	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, body.Success)
	assert.Equal(t, "created", body.Message)
	assert.Nil(t, body.Error)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		write    func(c *gin.Context)
		wantCode int
		wantErr  string
	}{
		{"bad request", func(c *gin.Context) { response.BadRequest(c, "bad", "details") }, http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", func(c *gin.Context) { response.NotFound(c, "missing") }, http.StatusNotFound, "NOT_FOUND"},
		{"internal", func(c *gin.Context) { response.InternalError(c, "boom", "") }, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"validation", func(c *gin.Context) { response.ValidationError(c, "field") }, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unprocessable", func(c *gin.Context) { response.UnprocessableEntity(c, "failed", "row 3") }, http.StatusUnprocessableEntity, "RECONCILIATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := record(t, tt.write)

			assert.Equal(t, tt.wantCode, code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantErr, body.Error.Code)
		})
	}
}

func TestEnvelopeCarriesRequestID(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		c.Set(response.RequestIDKey, "req-42")
		response.UnprocessableEntity(c, "failed", "erp row 3")
	})

	assert.Equal(t, "req-42", body.RequestID)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.CodeReconciliationFailed, body.Error.Code)
	assert.Equal(t, "erp row 3", body.Error.Details)

	_, body = record(t, func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", nil)
	})
	assert.Empty(t, body.RequestID)
}

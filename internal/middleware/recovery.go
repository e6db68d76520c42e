package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-recon/pkg/logger"
	"invoice-recon/pkg/response"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":      err,
					"request_id": c.GetString(response.RequestIDKey),
					"path":       c.Request.URL.Path,
				}).Error("Panic recovered")
				response.InternalError(c, "Internal server error", "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// ErrorHandler answers with 500 when a handler recorded an error through
// c.Error without writing a response itself
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.GetLogger().WithError(err.Err).WithField("request_id", c.GetString(response.RequestIDKey)).Error("Request error")

		if !c.Writer.Written() {
			response.InternalError(c, "Request failed", err.Error())
		}
	}
}

// NoRoute answers unknown paths with the API's error envelope
func NoRoute(c *gin.Context) {
	response.Error(c, http.StatusNotFound, response.CodeNotFound, "Route not found", c.Request.URL.Path)
}

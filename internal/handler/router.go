package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "invoice-recon/docs"
	"invoice-recon/internal/metrics"
	"invoice-recon/internal/middleware"
)

func NewRouter(reconHandler *ReconciliationHandler, invoiceHandler *InvoiceHandler, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.CreateInvoice)
			invoices.POST("/bulk", invoiceHandler.BulkCreateInvoices)
			invoices.GET("/:invoice_id", invoiceHandler.GetInvoice)
			invoices.GET("", invoiceHandler.GetInvoicesByDateRange)
		}

		reconciliation := v1.Group("/reconcile")
		{
			reconciliation.POST("", reconHandler.Reconcile)
			reconciliation.POST("/rows", reconHandler.ReconcileRows)
			reconciliation.GET("/runs/:run_id", reconHandler.GetRun)
			reconciliation.GET("/runs/:run_id/entries", reconHandler.GetEntries)
			reconciliation.GET("/runs/:run_id/report", reconHandler.GetReport)
			reconciliation.GET("/runs/:run_id/export", reconHandler.Export)
		}
	}

	return router
}

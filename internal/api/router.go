package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/payment-config/internal/handlers"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

// NewRouter wires every route. submitLimit, when non-nil, runs in front of
// transaction submission.
func NewRouter(payments *handlers.PaymentHandler, admin *handlers.AdminHandler, submitLimit gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-config"})
	})

	p := r.Group("/payments")
	p.GET("/active", payments.GetActivePayment)
	p.GET("/transactions", payments.ListTransactions)
	submit := []gin.HandlerFunc{payments.SubmitTransaction}
	if submitLimit != nil {
		submit = append([]gin.HandlerFunc{submitLimit}, submit...)
	}
	p.POST("/transactions", submit...)

	a := r.Group("/admin")
	a.GET("/payment-sets", admin.ListSets)
	a.POST("/payment-sets", admin.CreateSet)
	a.PUT("/payment-sets/:id", admin.UpdateSet)
	a.PUT("/payment-sets/:id/activate", admin.ToggleSet)
	a.DELETE("/payment-sets/:id", admin.DeleteSet)

	a.GET("/display-logs", admin.ListDisplayLogs)

	a.GET("/payment-templates", admin.ListTemplates)
	a.POST("/payment-templates", admin.CreateTemplate)
	a.POST("/payment-templates/:id/implement", admin.ImplementTemplate)
	a.DELETE("/payment-templates/:id", admin.DeleteTemplate)

	a.GET("/payment-transactions", admin.ListTransactions)
	a.PATCH("/payment-transactions/:id", admin.UpdateTransactionStatus)
	a.DELETE("/payment-transactions/:id", admin.DeleteTransaction)

	return r
}

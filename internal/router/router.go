package router

import (
	"github.com/gin-gonic/gin"

	"rabill/internal/config"
	"rabill/internal/handler"
	"rabill/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	projectH *handler.ProjectHandler,
	invoiceH *handler.InvoiceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Projects and BOQ catalog
	projects := v1.Group("/projects")
	projects.POST("", projectH.Create)
	projects.GET("", projectH.List)
	projects.GET("/:id", projectH.GetByID)
	projects.GET("/:id/boq", projectH.ListBOQ)
	projects.GET("/:id/boq/:item_id", projectH.GetBOQItem)
	projects.GET("/:id/ra-tracking", projectH.RATracking)

	// Invoices scoped to a project
	projects.POST("/:id/invoices", invoiceH.Create)
	projects.POST("/:id/invoices/validate", invoiceH.Validate)
	projects.GET("/:id/invoices", invoiceH.List)

	// Invoice access by id
	invoices := v1.Group("/invoices")
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.POST("/:id/void", invoiceH.Void)

	return r
}

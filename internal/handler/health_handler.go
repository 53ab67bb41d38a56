package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /healthz. It always succeeds while the process is
// serving; database state is the readiness probe's concern.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "rabill"})
}

// Readiness handles GET /readyz. Ready means the database answers and the
// billing schema is present, so a routed request can actually commit an
// invoice.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database not reachable",
		})
		return
	}

	var projects int
	if err := h.db.GetContext(ctx, &projects, "SELECT COUNT(*) FROM projects"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "billing schema not migrated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "projects": projects})
}

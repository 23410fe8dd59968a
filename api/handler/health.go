package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jsonleex/wr-exporter/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// StatusSource provides the current export status.
type StatusSource interface {
	Snapshot() models.ExportStatus
}

// Health returns a handler for GET /api/v1/health.
//
// Reports "degraded" once the export has failed.
func Health(src StatusSource, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if src.Snapshot().State == models.StateFailed {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		})
	}
}

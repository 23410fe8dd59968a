package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Export returns a handler for GET /api/v1/export.
func Export(src StatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, src.Snapshot())
	}
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jsonleex/wr-exporter/api/handler"
	"github.com/jsonleex/wr-exporter/config"
)

// NewRouter creates a configured Gin engine exposing the export status.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//
// Access logs go to gin.DefaultErrorWriter (stderr). Stdout carries the
// progress line and must not be interleaved with request logs.
//
// The server is meant for a local dashboard or script polling a long export,
// so there is no auth layer.
func NewRouter(src handler.StatusSource, cfg config.StatusConfig, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.RecoveryWithWriter(gin.DefaultErrorWriter))
	r.Use(gin.LoggerWithWriter(gin.DefaultErrorWriter))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(src, startTime))
	v1.GET("/export", handler.Export(src))

	return r
}

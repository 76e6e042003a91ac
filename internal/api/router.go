package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/shelly-manager-go/internal/api/handlers"
	"github.com/frostdev-ops/shelly-manager-go/internal/api/middleware"
	"github.com/frostdev-ops/shelly-manager-go/internal/config"
	"github.com/frostdev-ops/shelly-manager-go/internal/core/metrics"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, h *handlers.Handlers, collector *metrics.PrometheusCollector, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.ErrorResponseMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())
	if cfg.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware(collector))
	}

	// Public routes
	router.GET("/health", h.Health)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Minimal device manager UI
	router.StaticFile("/", "./static/index.html")
	router.Static("/static", "./static")

	// API v1 routes
	api := router.Group("/api/v1")
	{
		shellyGroup := api.Group("/shelly")
		{
			shellyGroup.GET("/scan", h.ScanDevices)
			shellyGroup.GET("/devices/:ip", h.GetDevice)
			shellyGroup.POST("/devices/:ip/update", h.UpdateFirmware)
			shellyGroup.POST("/devices/:ip/auth", h.SetAuth)
			shellyGroup.POST("/devices/:ip/reboot", h.RebootDevice)
			shellyGroup.GET("/debug", h.Debug)
			shellyGroup.GET("/mdns-scan", h.MDNSScan)
		}
	}

	return router
}

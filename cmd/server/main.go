package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/homeassistant"
	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
	"github.com/frostdev-ops/shelly-manager-go/internal/api"
	"github.com/frostdev-ops/shelly-manager-go/internal/api/handlers"
	"github.com/frostdev-ops/shelly-manager-go/internal/config"
	"github.com/frostdev-ops/shelly-manager-go/internal/core/discovery"
	"github.com/frostdev-ops/shelly-manager-go/internal/core/metrics"
	"github.com/frostdev-ops/shelly-manager-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level)

	if cfg.HomeAssistant.Token == "" {
		log.Warn("No Home Assistant token configured, hub requests will be rejected")
	}

	// Home Assistant client (REST plus WebSocket registry access)
	haClient := homeassistant.NewClient(
		cfg.HomeAssistant.URL,
		cfg.HomeAssistant.Token,
		cfg.HomeAssistant.HubTimeout(),
		log,
	)

	// Device-side components
	prober := shelly.NewProber(cfg.Shelly.ProbeTimeoutDuration(), log)
	clientFactory := shelly.NewClientFactory(cfg.Shelly.AdminPassword, cfg.Shelly.CommandTimeoutDuration())

	var mdnsScanner *shelly.MDNSScanner
	if cfg.Shelly.MDNS.Enabled {
		mdnsScanner = shelly.NewMDNSScanner(cfg.Shelly.MDNSTimeoutDuration(), log)
	}

	// Metrics
	collector := metrics.NewPrometheusCollector(&metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Prefix:  cfg.Metrics.Prefix,
	})

	// Discovery service
	service := discovery.NewService(
		haClient,
		prober,
		clientFactory,
		cfg.Shelly.AdminPassword,
		cfg.Shelly.ScanConcurrency,
		log,
	).WithRecorder(collector)

	// Initialize router
	h := handlers.NewHandlers(cfg, service, mdnsScanner, log)
	router := api.NewRouter(cfg, h, collector, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Infof("Starting Shelly Manager on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}

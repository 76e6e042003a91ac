package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
	"github.com/frostdev-ops/shelly-manager-go/internal/config"
	"github.com/frostdev-ops/shelly-manager-go/internal/core/discovery"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	cfg     *config.Config
	service *discovery.Service
	mdns    *shelly.MDNSScanner
	log     *logrus.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, service *discovery.Service, mdns *shelly.MDNSScanner, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		service: service,
		mdns:    mdns,
		log:     logger,
	}
}

// fail defers rendering to the error response middleware
func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

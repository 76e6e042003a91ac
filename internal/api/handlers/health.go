package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/shelly-manager-go/pkg/utils"
	"github.com/frostdev-ops/shelly-manager-go/pkg/version"
)

// Health returns the health status of the service
func (h *Handlers) Health(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "shelly-manager-go",
		"version":   version.GetVersion(),
	})
}

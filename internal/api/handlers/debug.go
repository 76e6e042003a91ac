package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/shelly-manager-go/pkg/utils"
)

// Debug returns the raw hub data views the discovery pipeline
// consumes, for troubleshooting scans that find nothing
func (h *Handlers) Debug(c *gin.Context) {
	report, err := h.service.Debug(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccess(c, report)
}

// MDNSScan browses the local network for Shelly mDNS announcements,
// independent of the hub
func (h *Handlers) MDNSScan(c *gin.Context) {
	if h.mdns == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "mDNS scanning is disabled")
		return
	}

	devices, err := h.mdns.Scan(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccessWithMeta(c, devices, gin.H{"count": len(devices)})
}

package handlers

import (
	"net"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/shelly-manager-go/pkg/utils"
)

var hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)

// setAuthRequest is the body of the authentication toggle endpoint
type setAuthRequest struct {
	Enable *bool `json:"enable" binding:"required"`
}

// ScanDevices runs the full discovery pipeline against the hub and
// returns the enriched device list
func (h *Handlers) ScanDevices(c *gin.Context) {
	devices, err := h.service.Scan(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccessWithMeta(c, devices, gin.H{"count": len(devices)})
}

// GetDevice probes one device and returns its live info, status and
// settings
func (h *Handlers) GetDevice(c *gin.Context) {
	ip, ok := h.deviceIP(c)
	if !ok {
		return
	}

	detail, err := h.service.DeviceDetail(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccess(c, detail)
}

// UpdateFirmware triggers an OTA update on the device
func (h *Handlers) UpdateFirmware(c *gin.Context) {
	ip, ok := h.deviceIP(c)
	if !ok {
		return
	}

	result, err := h.service.UpdateFirmware(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccess(c, result)
}

// SetAuth enables or disables device authentication
func (h *Handlers) SetAuth(c *gin.Context) {
	ip, ok := h.deviceIP(c)
	if !ok {
		return
	}

	var req setAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Request body must include an \"enable\" boolean")
		return
	}

	result, err := h.service.SetAuth(c.Request.Context(), ip, *req.Enable)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccess(c, result)
}

// RebootDevice restarts the device
func (h *Handlers) RebootDevice(c *gin.Context) {
	ip, ok := h.deviceIP(c)
	if !ok {
		return
	}

	if err := h.service.Reboot(c.Request.Context(), ip); err != nil {
		h.fail(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{"ip": ip, "rebooting": true})
}

// deviceIP validates the ip path parameter. Hostnames are accepted
// alongside IP literals: hub data can carry mDNS names like
// shellyplus1.local instead of addresses.
func (h *Handlers) deviceIP(c *gin.Context) (string, bool) {
	ip := c.Param("ip")
	if net.ParseIP(ip) == nil && !hostnamePattern.MatchString(ip) {
		utils.SendError(c, http.StatusBadRequest, "Invalid device address")
		return "", false
	}
	return ip, true
}

package discovery

import (
	"strings"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
)

const (
	// macUnknown is the explicit sentinel for devices whose hardware
	// address could not be recovered from hub data.
	macUnknown = "unknown"

	// valueUnknown is the default for best-effort metadata strings
	valueUnknown = "Unknown"
)

// Device is the normalized record produced by one discovery pass.
// A device is built fresh on every scan, mutated only during the
// enrichment pass that created it, then handed to the caller.
type Device struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	IP              string            `json:"ip,omitempty"`
	MAC             string            `json:"mac"`
	Model           string            `json:"model"`
	Manufacturer    string            `json:"manufacturer"`
	FirmwareVersion string            `json:"firmware_version,omitempty"`
	Generation      shelly.Generation `json:"generation"`
	AuthEnabled     bool              `json:"auth_enabled"`
	Entities        []string          `json:"entities,omitempty"`

	// Error annotates records whose address resolution or enrichment
	// failed. The record is still returned; partial data beats a
	// silent drop.
	Error string `json:"error,omitempty"`
}

// normalizeMAC uppercases a hardware address or falls back to the
// unknown sentinel.
func normalizeMAC(mac string) string {
	if mac == "" {
		return macUnknown
	}
	return strings.ToUpper(mac)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

package shelly

import (
	"context"
	"time"
)

const defaultUsername = "admin"

// Generation represents the Shelly device protocol generation
type Generation int

const (
	GenUnknown Generation = 0
	Gen1       Generation = 1
	Gen2       Generation = 2
)

func (g Generation) String() string {
	switch g {
	case Gen1:
		return "gen1"
	case Gen2:
		return "gen2"
	default:
		return "unknown"
	}
}

// DeviceInfo is the normalized result of a device's info endpoint,
// shared across generations.
type DeviceInfo struct {
	Type        string     `json:"type"`
	MAC         string     `json:"mac"`
	AuthEnabled bool       `json:"auth"`
	Firmware    string     `json:"fw"`
	Generation  Generation `json:"generation"`
	Name        string     `json:"name,omitempty"`
}

// CommandResult carries the outcome of a device command verbatim
type CommandResult struct {
	Success  bool        `json:"success"`
	Response interface{} `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// DeviceClient is the per-generation command surface. GetSettings is
// meaningful on Gen1 only; the Gen2 implementation maps it to
// Shelly.GetConfig.
type DeviceClient interface {
	Generation() Generation
	GetDeviceInfo(ctx context.Context) (*DeviceInfo, error)
	GetStatus(ctx context.Context) (map[string]interface{}, error)
	GetSettings(ctx context.Context) (map[string]interface{}, error)
	SetAuth(ctx context.Context, enable bool, password string) *CommandResult
	Reboot(ctx context.Context) error
	UpdateFirmware(ctx context.Context) *CommandResult
}

// ClientFactory builds generation-appropriate device clients
type ClientFactory struct {
	password string
	timeout  time.Duration
}

// NewClientFactory creates a factory. The password is the configured
// admin password used for authenticated device calls.
func NewClientFactory(password string, timeout time.Duration) *ClientFactory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ClientFactory{password: password, timeout: timeout}
}

// ClientFor returns a client for the given address and generation,
// or nil when the generation is unknown.
func (f *ClientFactory) ClientFor(ip string, gen Generation) DeviceClient {
	switch gen {
	case Gen1:
		return NewGen1Client(ip, f.password, f.timeout)
	case Gen2:
		return NewGen2Client(ip, f.password, f.timeout)
	default:
		return nil
	}
}

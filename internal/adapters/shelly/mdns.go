package shelly

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const (
	shellyServiceType = "_shelly._tcp"
	shellyDomain      = "local."
)

// MDNSDevice is a device announced over mDNS. This is a separate,
// hub-independent discovery surface; results are never merged into
// hub-derived scan output.
type MDNSDevice struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	IP              string     `json:"ip"`
	Port            int        `json:"port"`
	Hostname        string     `json:"hostname"`
	Model           string     `json:"model"`
	MAC             string     `json:"mac"`
	Generation      Generation `json:"generation"`
	FirmwareVersion string     `json:"firmware_version"`
}

// MDNSScanner browses the local network for Shelly announcements
type MDNSScanner struct {
	timeout time.Duration
	logger  *logrus.Logger
}

// NewMDNSScanner creates a scanner with the given browse window
func NewMDNSScanner(timeout time.Duration, logger *logrus.Logger) *MDNSScanner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MDNSScanner{timeout: timeout, logger: logger}
}

// Scan browses _shelly._tcp for the configured window and returns
// every announcement seen.
func (s *MDNSScanner) Scan(ctx context.Context) ([]MDNSDevice, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}

	entries := make(chan *zeroconf.ServiceEntry, 10)
	browseCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	go func() {
		if err := resolver.Browse(browseCtx, shellyServiceType, shellyDomain, entries); err != nil {
			s.logger.WithError(err).Error("mDNS browse failed")
			cancel()
		}
	}()

	var devices []MDNSDevice
	for entry := range entries {
		if device := s.processEntry(entry); device != nil {
			devices = append(devices, *device)
		}
	}

	s.logger.WithField("device_count", len(devices)).Debug("mDNS scan finished")
	return devices, nil
}

func (s *MDNSScanner) processEntry(entry *zeroconf.ServiceEntry) *MDNSDevice {
	if len(entry.AddrIPv4) == 0 {
		return nil
	}

	device := &MDNSDevice{
		Name:     entry.Instance,
		IP:       entry.AddrIPv4[0].String(),
		Port:     entry.Port,
		Hostname: entry.HostName,
	}

	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		switch key {
		case "gen":
			if gen, err := strconv.Atoi(value); err == nil {
				device.Generation = Generation(gen)
			}
		case "app":
			device.Model = value
		case "ver":
			device.FirmwareVersion = value
		case "mac":
			device.MAC = strings.ToUpper(value)
		case "id":
			device.ID = value
		}
	}

	if device.ID == "" {
		device.ID = strings.ToLower(entry.Instance)
	}

	return device
}

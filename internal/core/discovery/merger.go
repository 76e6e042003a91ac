package discovery

import (
	"context"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
	"github.com/sirupsen/logrus"
)

// Enricher augments located candidates with live data read from the
// device itself. Hub-derived fields always survive a failed probe or
// query; live data only ever overwrites, never blanks.
type Enricher struct {
	prober  GenerationProber
	clients DeviceClientFactory
	logger  *logrus.Logger
}

func NewEnricher(prober GenerationProber, clients DeviceClientFactory, logger *logrus.Logger) *Enricher {
	return &Enricher{prober: prober, clients: clients, logger: logger}
}

// Enrich probes the device at its candidate address and merges the
// response into the record. The input device is mutated and returned.
func (e *Enricher) Enrich(ctx context.Context, device *Device) *Device {
	if device.IP == "" {
		return device
	}

	gen := e.prober.Detect(ctx, device.IP)
	if gen == shelly.GenUnknown {
		e.logger.WithField("ip", device.IP).Debug("Device did not answer generation probes")
		return device
	}

	client := e.clients.ClientFor(device.IP, gen)
	if client == nil {
		return device
	}

	info, err := client.GetDeviceInfo(ctx)
	if err != nil || info == nil {
		e.logger.WithFields(logrus.Fields{
			"ip":         device.IP,
			"generation": gen.String(),
		}).WithError(err).Debug("Device info query failed, keeping hub data")
		return device
	}

	device.Generation = gen
	device.AuthEnabled = info.AuthEnabled
	if info.Firmware != "" {
		device.FirmwareVersion = info.Firmware
	}
	if info.Type != "" {
		device.Model = info.Type
	}

	return device
}

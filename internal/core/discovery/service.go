package discovery

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/frostdev-ops/shelly-manager-go/pkg/errors"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/homeassistant"
	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
	"github.com/sirupsen/logrus"
)

// errNoAddress annotates scan results for candidates the hub knows
// about but whose network address could not be recovered.
const errNoAddress = "No IP address found"

// DataSource is the hub-side read surface the service needs. The
// Home Assistant adapter satisfies it.
type DataSource interface {
	TestConnection(ctx context.Context) error
	DeviceRegistry(ctx context.Context) ([]homeassistant.HADevice, error)
	ConfigEntries(ctx context.Context, entryIDs []string) ([]homeassistant.HAConfigEntry, error)
	States(ctx context.Context) ([]homeassistant.HAEntityState, error)
}

// GenerationProber classifies a device by live probing.
type GenerationProber interface {
	Detect(ctx context.Context, ip string) shelly.Generation
}

// DeviceClientFactory builds generation-specific device clients.
type DeviceClientFactory interface {
	ClientFor(ip string, gen shelly.Generation) shelly.DeviceClient
}

// Recorder receives operational metrics from the service. The
// Prometheus collector satisfies it.
type Recorder interface {
	RecordDeviceOperation(generation, operation string, success bool)
	RecordGenerationProbe(result string)
	RecordScan(located, enriched int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDeviceOperation(string, string, bool) {}
func (nopRecorder) RecordGenerationProbe(string)               {}
func (nopRecorder) RecordScan(int, int, time.Duration)         {}

// DeviceDetail is the full live view of one device returned by the
// detail operation.
type DeviceDetail struct {
	IP         string                 `json:"ip"`
	Generation string                 `json:"generation"`
	Info       *shelly.DeviceInfo     `json:"info"`
	Status     map[string]interface{} `json:"status,omitempty"`
	Settings   map[string]interface{} `json:"settings,omitempty"`
}

// AuthResult reports an authentication toggle, including the state
// observed before the change so callers can confirm the transition.
type AuthResult struct {
	IP          string `json:"ip"`
	Generation  string `json:"generation"`
	WasEnabled  bool   `json:"was_enabled"`
	AuthEnabled bool   `json:"auth_enabled"`
}

// DebugReport exposes the raw hub data views for troubleshooting
// discovery problems.
type DebugReport struct {
	Connection     string                        `json:"connection"`
	DeviceCount    int                           `json:"device_count"`
	ShellyDevices  []homeassistant.HADevice      `json:"shelly_devices"`
	ShellyEntities []string                      `json:"shelly_entities"`
	ConfigEntries  []homeassistant.HAConfigEntry `json:"config_entries"`
}

// Service is the command facade tying the hub data source, locator,
// prober and device clients into the operations the API exposes.
type Service struct {
	hub           DataSource
	locator       *Locator
	enricher      *Enricher
	prober        GenerationProber
	clients       DeviceClientFactory
	adminPassword string
	concurrency   int
	recorder      Recorder
	logger        *logrus.Logger
}

func NewService(hub DataSource, prober GenerationProber, clients DeviceClientFactory, adminPassword string, concurrency int, logger *logrus.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		hub:           hub,
		locator:       NewLocator(logger),
		enricher:      NewEnricher(prober, clients, logger),
		prober:        prober,
		clients:       clients,
		adminPassword: adminPassword,
		concurrency:   concurrency,
		recorder:      nopRecorder{},
		logger:        logger,
	}
}

// WithRecorder attaches a metrics recorder to the service
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Scan runs the full discovery pipeline: verify hub connectivity,
// fetch the data snapshot, locate candidates, then enrich them in
// parallel. Result order matches locator order regardless of probe
// completion order.
func (s *Service) Scan(ctx context.Context) ([]*Device, error) {
	start := time.Now()

	if err := s.hub.TestConnection(ctx); err != nil {
		s.logger.WithError(err).Error("Home Assistant connectivity check failed")
		return nil, apperrors.ErrHubUnreachable.WithDetails(err.Error())
	}

	snap := s.fetchSnapshot(ctx)
	devices := s.locator.Locate(snap)
	if len(devices) == 0 {
		return []*Device{}, nil
	}

	sem := make(chan struct{}, s.concurrency)
	done := make(chan struct{})
	for _, device := range devices {
		go func(d *Device) {
			sem <- struct{}{}
			defer func() {
				<-sem
				done <- struct{}{}
			}()

			if d.IP == "" {
				d.Error = errNoAddress
				return
			}
			s.enricher.Enrich(ctx, d)
		}(device)
	}
	for range devices {
		<-done
	}

	enriched := 0
	for _, d := range devices {
		if d.Generation != shelly.GenUnknown {
			enriched++
		}
	}
	s.recorder.RecordScan(len(devices), enriched, time.Since(start))

	s.logger.WithFields(logrus.Fields{
		"device_count": len(devices),
		"enriched":     enriched,
	}).Info("Scan complete")
	return devices, nil
}

// fetchSnapshot gathers registry, config entry and state data,
// tolerating individual source failures: each strategy degrades on
// its own when a view is missing.
func (s *Service) fetchSnapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{}

	devices, err := s.hub.DeviceRegistry(ctx)
	if err != nil {
		if homeassistant.IsAuthError(err) {
			s.logger.WithError(err).Error("Hub rejected the configured token")
		} else {
			s.logger.WithError(err).Warn("Device registry unavailable")
		}
	} else {
		snap.Devices = devices
	}

	entryIDs := collectEntryIDs(snap.Devices)
	if len(entryIDs) > 0 {
		entries, err := s.hub.ConfigEntries(ctx, entryIDs)
		if err != nil {
			s.logger.WithError(err).Warn("Config entries unavailable")
		} else {
			snap.Entries = entries
		}
	}

	states, err := s.hub.States(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Entity states unavailable")
	} else {
		snap.States = states
	}

	return snap
}

func collectEntryIDs(devices []homeassistant.HADevice) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range devices {
		for _, id := range devices[i].ConfigEntries {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// DeviceDetail probes the device at ip and returns its live info,
// status and, for first-generation devices, settings.
func (s *Service) DeviceDetail(ctx context.Context, ip string) (*DeviceDetail, error) {
	client, gen, err := s.clientFor(ctx, ip)
	if err != nil {
		return nil, err
	}

	info, err := client.GetDeviceInfo(ctx)
	if err != nil || info == nil {
		return nil, apperrors.ErrDeviceNotFound.WithDetails(fmt.Sprintf("device at %s did not answer info query", ip))
	}

	detail := &DeviceDetail{IP: ip, Generation: gen.String(), Info: info}

	if status, err := client.GetStatus(ctx); err == nil {
		detail.Status = status
	}
	if gen == shelly.Gen1 {
		if settings, err := client.GetSettings(ctx); err == nil {
			detail.Settings = settings
		}
	}

	return detail, nil
}

// UpdateFirmware triggers an OTA update to the stable channel.
func (s *Service) UpdateFirmware(ctx context.Context, ip string) (*shelly.CommandResult, error) {
	client, gen, err := s.clientFor(ctx, ip)
	if err != nil {
		return nil, err
	}
	result := client.UpdateFirmware(ctx)
	s.recorder.RecordDeviceOperation(gen.String(), "update_firmware", result.Success)
	return result, nil
}

// SetAuth enables or disables device authentication. Both directions
// require the admin password to be configured; the check happens
// before any network traffic.
func (s *Service) SetAuth(ctx context.Context, ip string, enable bool) (*AuthResult, error) {
	if s.adminPassword == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	client, gen, err := s.clientFor(ctx, ip)
	if err != nil {
		return nil, err
	}

	wasEnabled := false
	if info, err := client.GetDeviceInfo(ctx); err == nil && info != nil {
		wasEnabled = info.AuthEnabled
	}

	result := client.SetAuth(ctx, enable, s.adminPassword)
	s.recorder.RecordDeviceOperation(gen.String(), "set_auth", result.Success)
	if !result.Success {
		return nil, apperrors.ErrInternalServer.WithDetails(result.Error)
	}

	return &AuthResult{
		IP:          ip,
		Generation:  gen.String(),
		WasEnabled:  wasEnabled,
		AuthEnabled: enable,
	}, nil
}

// Reboot restarts the device at ip.
func (s *Service) Reboot(ctx context.Context, ip string) error {
	client, gen, err := s.clientFor(ctx, ip)
	if err != nil {
		return err
	}
	rebootErr := client.Reboot(ctx)
	s.recorder.RecordDeviceOperation(gen.String(), "reboot", rebootErr == nil)
	if rebootErr != nil {
		return apperrors.ErrInternalServer.WithDetails(rebootErr.Error())
	}
	return nil
}

// Debug collects the raw hub views the locator consumes, filtered to
// Shelly-related records.
func (s *Service) Debug(ctx context.Context) (*DebugReport, error) {
	report := &DebugReport{Connection: "ok"}
	if err := s.hub.TestConnection(ctx); err != nil {
		report.Connection = err.Error()
	}

	snap := s.fetchSnapshot(ctx)
	report.DeviceCount = len(snap.Devices)
	for i := range snap.Devices {
		if matchesShellyDevice(&snap.Devices[i]) {
			report.ShellyDevices = append(report.ShellyDevices, snap.Devices[i])
		}
	}
	for i := range snap.States {
		if containsShelly(snap.States[i].EntityID) {
			report.ShellyEntities = append(report.ShellyEntities, snap.States[i].EntityID)
		}
	}
	report.ConfigEntries = snap.Entries

	return report, nil
}

// clientFor probes ip and returns a client for the detected
// generation, or a not-found error when the device stays silent.
func (s *Service) clientFor(ctx context.Context, ip string) (shelly.DeviceClient, shelly.Generation, error) {
	gen := s.prober.Detect(ctx, ip)
	s.recorder.RecordGenerationProbe(gen.String())
	client := s.clients.ClientFor(ip, gen)
	if client == nil {
		return nil, gen, apperrors.ErrDeviceNotFound.WithDetails(fmt.Sprintf("device at %s answered neither generation probe", ip))
	}
	return client, gen, nil
}

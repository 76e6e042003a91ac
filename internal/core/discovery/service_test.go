package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/homeassistant"
	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/shelly"
	apperrors "github.com/frostdev-ops/shelly-manager-go/pkg/errors"
)

// fakeHub scripts the hub data source
type fakeHub struct {
	connErr    error
	devices    []homeassistant.HADevice
	devicesErr error
	entries    []homeassistant.HAConfigEntry
	entriesErr error
	states     []homeassistant.HAEntityState
	statesErr  error
}

func (h *fakeHub) TestConnection(context.Context) error { return h.connErr }

func (h *fakeHub) DeviceRegistry(context.Context) ([]homeassistant.HADevice, error) {
	return h.devices, h.devicesErr
}

func (h *fakeHub) ConfigEntries(context.Context, []string) ([]homeassistant.HAConfigEntry, error) {
	return h.entries, h.entriesErr
}

func (h *fakeHub) States(context.Context) ([]homeassistant.HAEntityState, error) {
	return h.states, h.statesErr
}

func newTestService(hub *fakeHub, prober *fakeProber, factory *fakeFactory, password string) *Service {
	return NewService(hub, prober, factory, password, 4, testLogger())
}

func TestScanHubUnreachable(t *testing.T) {
	hub := &fakeHub{connErr: errors.New("connection refused")}
	svc := newTestService(hub, &fakeProber{}, &fakeFactory{}, "")

	_, err := svc.Scan(context.Background())

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrHubUnreachable.Code, appErr.Code)
}

func TestScanEnrichesAndAnnotates(t *testing.T) {
	hub := &fakeHub{
		devices: []homeassistant.HADevice{
			shellyDevice("dev1", "Kitchen", "192.168.1.10"),
			{
				ID:               "dev2",
				Name:             "Hall",
				Manufacturer:     "Shelly",
				Model:            "SHSW-1",
				ConfigurationURL: "http://192.168.1.11/",
			},
		},
		entries: []homeassistant.HAConfigEntry{
			{EntryID: "entry-dev1", Domain: "shelly", Data: map[string]interface{}{"host": "192.168.1.10"}},
		},
	}
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen2}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {gen: shelly.Gen2, info: &shelly.DeviceInfo{Type: "Plus1", Firmware: "1.4.4", Generation: shelly.Gen2}},
	}}

	devices, err := newTestService(hub, prober, factory, "").Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 2)

	// Result order follows locator order
	assert.Equal(t, "dev1", devices[0].ID)
	assert.Equal(t, shelly.Gen2, devices[0].Generation)
	assert.Equal(t, "1.4.4", devices[0].FirmwareVersion)
	assert.Empty(t, devices[0].Error)

	// dev2 has no shelly config entry, so no address is recovered
	assert.Equal(t, "dev2", devices[1].ID)
	assert.Equal(t, "No IP address found", devices[1].Error)
}

func TestScanAnnotatesAddresslessDevices(t *testing.T) {
	hub := &fakeHub{
		devices: []homeassistant.HADevice{
			{
				ID:               "dev1",
				Name:             "Orphan",
				Manufacturer:     "Shelly",
				Model:            "SHSW-1",
				ConfigurationURL: "http://shelly1.local/",
			},
		},
	}

	devices, err := newTestService(hub, &fakeProber{}, &fakeFactory{}, "").Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "No IP address found", devices[0].Error)
}

func TestScanToleratesRegistryFailure(t *testing.T) {
	hub := &fakeHub{
		devicesErr: errors.New("websocket closed"),
		states: []homeassistant.HAEntityState{
			{EntityID: "switch.shellyplus1_192_168_1_77"},
		},
	}
	prober := &fakeProber{generations: map[string]shelly.Generation{}}

	devices, err := newTestService(hub, prober, &fakeFactory{}, "").Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "192.168.1.77", devices[0].IP)
}

func TestScanRepeatedScansStable(t *testing.T) {
	hub := &fakeHub{
		devices: []homeassistant.HADevice{
			shellyDevice("dev1", "Kitchen", "192.168.1.10"),
			{
				ID:               "dev2",
				Name:             "Hall",
				Manufacturer:     "Shelly",
				Model:            "SHSW-1",
				ConfigurationURL: "http://shelly1.local/",
			},
		},
		entries: []homeassistant.HAConfigEntry{
			{EntryID: "entry-dev1", Domain: "shelly", Data: map[string]interface{}{"host": "192.168.1.10"}},
		},
	}
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen2}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {gen: shelly.Gen2, info: &shelly.DeviceInfo{Type: "Plus1", Firmware: "1.4.4", Generation: shelly.Gen2}},
	}}
	svc := newTestService(hub, prober, factory, "")

	// Unchanged hub state must yield the same device list on every run
	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	second, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScanEmptyHub(t *testing.T) {
	devices, err := newTestService(&fakeHub{}, &fakeProber{}, &fakeFactory{}, "").Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestDeviceDetailGen1IncludesSettings(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen1}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {
			gen:      shelly.Gen1,
			info:     &shelly.DeviceInfo{Type: "SHSW-1", Generation: shelly.Gen1},
			status:   map[string]interface{}{"relays": []interface{}{}},
			settings: map[string]interface{}{"name": "kitchen"},
		},
	}}

	detail, err := newTestService(&fakeHub{}, prober, factory, "").DeviceDetail(context.Background(), "192.168.1.10")

	require.NoError(t, err)
	assert.Equal(t, "gen1", detail.Generation)
	assert.NotNil(t, detail.Status)
	assert.NotNil(t, detail.Settings)
}

func TestDeviceDetailGen2OmitsSettings(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen2}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {
			gen:    shelly.Gen2,
			info:   &shelly.DeviceInfo{Type: "Plus1", Generation: shelly.Gen2},
			status: map[string]interface{}{"sys": map[string]interface{}{}},
		},
	}}

	detail, err := newTestService(&fakeHub{}, prober, factory, "").DeviceDetail(context.Background(), "192.168.1.10")

	require.NoError(t, err)
	assert.Equal(t, "gen2", detail.Generation)
	assert.Nil(t, detail.Settings)
}

func TestDeviceDetailUndetectable(t *testing.T) {
	_, err := newTestService(&fakeHub{}, &fakeProber{}, &fakeFactory{}, "").DeviceDetail(context.Background(), "192.168.1.99")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrDeviceNotFound.Code, err.(*apperrors.AppError).Code)
}

func TestSetAuthRequiresConfiguredPassword(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen1}}
	client := &fakeDeviceClient{gen: shelly.Gen1, info: &shelly.DeviceInfo{}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{"192.168.1.10": client}}

	// Without a configured password both directions fail before any
	// network traffic; an unauthenticated disable attempt would just
	// surface a confusing device-side error.
	for _, enable := range []bool{true, false} {
		_, err := newTestService(&fakeHub{}, prober, factory, "").SetAuth(context.Background(), "192.168.1.10", enable)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrPasswordRequired.Code, err.(*apperrors.AppError).Code)
	}
	assert.Zero(t, client.setAuthCalls)
}

func TestSetAuthDisableWithPassword(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen1}}
	client := &fakeDeviceClient{gen: shelly.Gen1, info: &shelly.DeviceInfo{AuthEnabled: true}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{"192.168.1.10": client}}

	result, err := newTestService(&fakeHub{}, prober, factory, "secret").SetAuth(context.Background(), "192.168.1.10", false)

	require.NoError(t, err)
	assert.True(t, result.WasEnabled)
	assert.False(t, result.AuthEnabled)
	assert.False(t, client.setAuthEnable)
}

func TestSetAuthReportsPreviousState(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen2}}
	client := &fakeDeviceClient{
		gen:  shelly.Gen2,
		info: &shelly.DeviceInfo{AuthEnabled: false, Generation: shelly.Gen2},
	}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{"192.168.1.10": client}}

	result, err := newTestService(&fakeHub{}, prober, factory, "secret").SetAuth(context.Background(), "192.168.1.10", true)

	require.NoError(t, err)
	assert.False(t, result.WasEnabled)
	assert.True(t, result.AuthEnabled)
	assert.True(t, client.setAuthEnable)
	assert.Equal(t, "secret", client.setAuthPassword)
}

func TestUpdateFirmwarePassesResultThrough(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen1}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {
			gen:       shelly.Gen1,
			updateRes: &shelly.CommandResult{Success: true, Response: map[string]interface{}{"status": "updating"}},
		},
	}}

	result, err := newTestService(&fakeHub{}, prober, factory, "").UpdateFirmware(context.Background(), "192.168.1.10")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Response)
}

func TestRebootFailure(t *testing.T) {
	prober := &fakeProber{generations: map[string]shelly.Generation{"192.168.1.10": shelly.Gen1}}
	factory := &fakeFactory{clients: map[string]*fakeDeviceClient{
		"192.168.1.10": {gen: shelly.Gen1, rebootErr: errors.New("device busy")},
	}}

	err := newTestService(&fakeHub{}, prober, factory, "").Reboot(context.Background(), "192.168.1.10")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInternalServer.Code, err.(*apperrors.AppError).Code)
}

func TestDebugReportsShellyRecords(t *testing.T) {
	hub := &fakeHub{
		devices: []homeassistant.HADevice{
			shellyDevice("dev1", "Kitchen", "192.168.1.10"),
			{ID: "dev2", Name: "Thermostat", Manufacturer: "Nest"},
		},
		states: []homeassistant.HAEntityState{
			{EntityID: "switch.shelly_kitchen"},
			{EntityID: "climate.nest"},
		},
	}

	report, err := newTestService(hub, &fakeProber{}, &fakeFactory{}, "").Debug(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", report.Connection)
	assert.Equal(t, 2, report.DeviceCount)
	require.Len(t, report.ShellyDevices, 1)
	assert.Equal(t, []string{"switch.shelly_kitchen"}, report.ShellyEntities)
}

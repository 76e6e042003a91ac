package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/frostdev-ops/shelly-manager-go/internal/adapters/homeassistant"
	"github.com/sirupsen/logrus"
)

var (
	ipv4Pattern       = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	underscoreIPParts = regexp.MustCompile(`(\d+)_(\d+)_(\d+)_(\d+)`)
	underscoreIPTail  = regexp.MustCompile(`_\d+_\d+_\d+_\d+$`)
)

// Snapshot carries the raw hub records for one discovery pass. Any of
// the three collections may be nil; strategies degrade accordingly.
type Snapshot struct {
	Devices []homeassistant.HADevice
	Entries []homeassistant.HAConfigEntry
	States  []homeassistant.HAEntityState
}

// strategy extracts candidate devices from one view of the hub data.
// Implementations are pure over the snapshot.
type strategy interface {
	name() string
	extract(snap *Snapshot) []*Device
}

// Locator turns heterogeneous hub data into a deduplicated candidate
// list with best-effort addresses. Strategies run in priority order;
// each one is a complete fallback used when the previous yielded zero
// address-bearing candidates.
type Locator struct {
	strategies []strategy
	logger     *logrus.Logger
}

// NewLocator creates a locator with the standard strategy chain
func NewLocator(logger *logrus.Logger) *Locator {
	return &Locator{
		strategies: []strategy{
			&registryJoinStrategy{},
			&configURLStrategy{},
			&entityStateStrategy{},
		},
		logger: logger,
	}
}

// Locate runs the strategy chain and returns the first candidate set
// containing at least one address-bearing device. When no strategy
// recovers an address, the first non-empty set is returned so that
// devices stay visible to operators.
func (l *Locator) Locate(snap *Snapshot) []*Device {
	var firstNonEmpty []*Device
	firstName := ""

	for _, s := range l.strategies {
		candidates := s.extract(snap)
		if len(candidates) == 0 {
			continue
		}
		if firstNonEmpty == nil {
			firstNonEmpty = candidates
			firstName = s.name()
		}

		withIP := 0
		for _, c := range candidates {
			if c.IP != "" {
				withIP++
			}
		}

		if withIP > 0 {
			l.logger.WithFields(logrus.Fields{
				"strategy":     s.name(),
				"device_count": len(candidates),
				"with_ip":      withIP,
			}).Info("Located Shelly devices")
			return candidates
		}

		l.logger.WithField("strategy", s.name()).Debug("Strategy yielded no address-bearing candidates, trying next")
	}

	if firstNonEmpty != nil {
		l.logger.WithFields(logrus.Fields{
			"strategy":     firstName,
			"device_count": len(firstNonEmpty),
		}).Warn("No strategy recovered an address, returning candidates without IPs")
		return firstNonEmpty
	}

	return []*Device{}
}

// matchesShellyDevice applies the manufacturer filter to a registry
// record: manufacturer, model, name, or any identifier namespace must
// contain the token "shelly".
func matchesShellyDevice(d *homeassistant.HADevice) bool {
	if containsShelly(d.Manufacturer) || containsShelly(d.Model) || containsShelly(d.DisplayName()) {
		return true
	}
	return d.HasIdentifierNamespace("shelly")
}

func containsShelly(s string) bool {
	return strings.Contains(strings.ToLower(s), "shelly")
}

// candidateSet accumulates candidates with within-strategy
// deduplication by device key, preserving first-seen order.
type candidateSet struct {
	order []string
	byKey map[string]*Device
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byKey: make(map[string]*Device)}
}

// add merges a candidate into the set. A repeated key fills the
// existing record's address only when it was empty and appends the
// new entity ids; no other fields are overwritten.
func (cs *candidateSet) add(key string, device *Device) *Device {
	if existing, ok := cs.byKey[key]; ok {
		if existing.IP == "" && device.IP != "" {
			existing.IP = device.IP
		}
		existing.Entities = append(existing.Entities, device.Entities...)
		return existing
	}

	cs.byKey[key] = device
	cs.order = append(cs.order, key)
	return device
}

func (cs *candidateSet) list() []*Device {
	devices := make([]*Device, 0, len(cs.order))
	for _, key := range cs.order {
		devices = append(devices, cs.byKey[key])
	}
	return devices
}

// registryJoinStrategy joins the device registry with config entries:
// the address comes from the data mapping of the device's first
// config entry with domain "shelly".
type registryJoinStrategy struct{}

func (s *registryJoinStrategy) name() string { return "registry-join" }

func (s *registryJoinStrategy) extract(snap *Snapshot) []*Device {
	if len(snap.Devices) == 0 {
		return nil
	}

	entryByID := make(map[string]*homeassistant.HAConfigEntry, len(snap.Entries))
	for i := range snap.Entries {
		entryByID[snap.Entries[i].EntryID] = &snap.Entries[i]
	}

	set := newCandidateSet()
	for i := range snap.Devices {
		d := &snap.Devices[i]
		if !matchesShellyDevice(d) {
			continue
		}

		// Records without a configuration URL or model string are
		// entity-only stubs, not physical devices.
		if d.ConfigurationURL == "" || d.Model == "" {
			continue
		}

		ip := ""
		for _, entryID := range d.ConfigEntries {
			entry, ok := entryByID[entryID]
			if !ok || entry.Domain != "shelly" {
				continue
			}
			if host := entry.HostFromData(); host != "" {
				ip = host
				break
			}
		}

		set.add(d.ID, &Device{
			ID:              d.ID,
			Name:            defaultString(d.DisplayName(), valueUnknown),
			IP:              ip,
			MAC:             normalizeMAC(d.MAC()),
			Model:           defaultString(d.Model, valueUnknown),
			Manufacturer:    defaultString(d.Manufacturer, valueUnknown),
			FirmwareVersion: d.SWVersion,
		})
	}

	return set.list()
}

// configURLStrategy recovers addresses from the IPv4 literal embedded
// in each device's configuration URL.
type configURLStrategy struct{}

func (s *configURLStrategy) name() string { return "configuration-url" }

func (s *configURLStrategy) extract(snap *Snapshot) []*Device {
	if len(snap.Devices) == 0 {
		return nil
	}

	set := newCandidateSet()
	for i := range snap.Devices {
		d := &snap.Devices[i]
		if !matchesShellyDevice(d) {
			continue
		}

		device := &Device{
			ID:              d.ID,
			Name:            defaultString(d.DisplayName(), valueUnknown),
			MAC:             normalizeMAC(d.IdentifierValue("shelly")),
			Model:           defaultString(d.Model, valueUnknown),
			Manufacturer:    defaultString(d.Manufacturer, valueUnknown),
			FirmwareVersion: d.SWVersion,
		}

		if d.ConfigurationURL != "" {
			if ip := ipv4Pattern.FindString(d.ConfigurationURL); ip != "" {
				device.IP = ip
			} else {
				// Keep the unparsed URL visible for diagnosis
				device.Error = fmt.Sprintf("no IPv4 literal in configuration URL %q", d.ConfigurationURL)
			}
		}

		set.add(d.ID, device)
	}

	return set.list()
}

// entityStateStrategy derives devices from entity states alone, for
// hubs where device registry access is unavailable. Entities are
// grouped by a device key derived from the entity id and the address
// is recovered through a chain of attribute and naming heuristics.
type entityStateStrategy struct{}

func (s *entityStateStrategy) name() string { return "entity-state" }

func (s *entityStateStrategy) extract(snap *Snapshot) []*Device {
	if len(snap.States) == 0 {
		return nil
	}

	set := newCandidateSet()
	for i := range snap.States {
		state := &snap.States[i]
		if !containsShelly(state.EntityID) && !containsShelly(state.FriendlyName()) {
			continue
		}

		key := deviceKeyFromEntity(state)
		if key == "" {
			continue
		}

		set.add(key, &Device{
			ID:           key,
			Name:         defaultString(state.FriendlyName(), valueUnknown),
			IP:           resolveEntityAddress(state),
			MAC:          macUnknown,
			Model:        valueUnknown,
			Manufacturer: "Shelly",
			Entities:     []string{state.EntityID},
		})
	}

	devices := set.list()

	// Last resort: an IPv4 literal embedded in the display name
	for _, device := range devices {
		if device.IP == "" {
			device.IP = ipv4Pattern.FindString(device.Name)
		}
	}

	return devices
}

// deviceKeyFromEntity takes the entity id component after the domain
// separator and strips a trailing underscore-encoded IPv4 suffix, so
// "switch.shellyplus1_192_168_1_77" groups under "shellyplus1".
func deviceKeyFromEntity(state *homeassistant.HAEntityState) string {
	return underscoreIPTail.ReplaceAllString(state.ObjectID(), "")
}

// resolveEntityAddress tries the address heuristics in order; the
// first hit wins.
func resolveEntityAddress(state *homeassistant.HAEntityState) string {
	// Nested device_info attribute
	if deviceInfo := state.MapAttr("device_info"); deviceInfo != nil {
		if host, ok := deviceInfo["host"].(string); ok && host != "" {
			return host
		}
		if hostname, ok := deviceInfo["hostname"].(string); ok && hostname != "" {
			return hostname
		}
	}

	// Underscore-encoded IPv4 in the entity id, e.g.
	// switch.shellyplus1_192_168_1_100
	if m := underscoreIPParts.FindStringSubmatch(state.EntityID); m != nil {
		return strings.Join(m[1:], ".")
	}

	// Direct attribute fields
	for _, field := range []string{"host", "ip_address", "hostname", "ip"} {
		if value := state.StringAttr(field); value != "" {
			return value
		}
	}

	// The same fields nested one level inside any dict-valued attribute
	for _, value := range state.Attributes {
		nested, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		for _, field := range []string{"host", "ip_address", "hostname", "ip"} {
			if v, ok := nested[field].(string); ok && v != "" {
				return v
			}
		}
	}

	return ""
}

package homeassistant

import "strings"

// HADevice represents a Home Assistant device registry record. Every
// field is optional and untrusted; upstream integrations fill these
// records inconsistently.
type HADevice struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	NameByUser       *string         `json:"name_by_user"`
	Manufacturer     string          `json:"manufacturer"`
	Model            string          `json:"model"`
	SWVersion        string          `json:"sw_version"`
	ConfigurationURL string          `json:"configuration_url"`
	ConfigEntries    []string        `json:"config_entries"`
	Connections      [][]interface{} `json:"connections"`
	Identifiers      [][]interface{} `json:"identifiers"`
	AreaID           *string         `json:"area_id"`
	DisabledBy       *string         `json:"disabled_by"`
}

// HAConfigEntry represents a Home Assistant config entry record
type HAConfigEntry struct {
	EntryID string                 `json:"entry_id"`
	Domain  string                 `json:"domain"`
	Title   string                 `json:"title"`
	Data    map[string]interface{} `json:"data"`
}

// HAEntityState represents one record from the /api/states collection
type HAEntityState struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// DisplayName returns the user-assigned name when present, the
// integration-assigned name otherwise.
func (d *HADevice) DisplayName() string {
	if d.NameByUser != nil && *d.NameByUser != "" {
		return *d.NameByUser
	}
	return d.Name
}

// MAC returns the value of the "mac" connection pair, or ""
func (d *HADevice) MAC() string {
	for _, conn := range d.Connections {
		if len(conn) < 2 {
			continue
		}
		connType, _ := conn[0].(string)
		if connType != "mac" {
			continue
		}
		if value, ok := conn[1].(string); ok {
			return value
		}
	}
	return ""
}

// IdentifierValue returns the value half of the identifier pair whose
// namespace matches, or ""
func (d *HADevice) IdentifierValue(namespace string) string {
	for _, ident := range d.Identifiers {
		if len(ident) < 2 {
			continue
		}
		ns, _ := ident[0].(string)
		if ns != namespace {
			continue
		}
		if value, ok := ident[1].(string); ok {
			return value
		}
	}
	return ""
}

// HasIdentifierNamespace reports whether any identifier pair uses the
// given namespace.
func (d *HADevice) HasIdentifierNamespace(namespace string) bool {
	for _, ident := range d.Identifiers {
		if len(ident) >= 1 {
			if ns, ok := ident[0].(string); ok && strings.EqualFold(ns, namespace) {
				return true
			}
		}
	}
	return false
}

// HostFromData returns the host or ip field of a config entry's data
// mapping, or ""
func (e *HAConfigEntry) HostFromData() string {
	if e.Data == nil {
		return ""
	}
	if host, ok := e.Data["host"].(string); ok && host != "" {
		return host
	}
	if ip, ok := e.Data["ip"].(string); ok && ip != "" {
		return ip
	}
	return ""
}

// FriendlyName returns the friendly_name attribute, or ""
func (s *HAEntityState) FriendlyName() string {
	return s.StringAttr("friendly_name")
}

// StringAttr returns a top-level string attribute, or ""
func (s *HAEntityState) StringAttr(key string) string {
	if s.Attributes == nil {
		return ""
	}
	value, _ := s.Attributes[key].(string)
	return value
}

// MapAttr returns a top-level dict-valued attribute, or nil
func (s *HAEntityState) MapAttr(key string) map[string]interface{} {
	if s.Attributes == nil {
		return nil
	}
	value, _ := s.Attributes[key].(map[string]interface{})
	return value
}

// ObjectID returns the entity id component after the domain separator,
// e.g. "shellyplus1_aabbcc" for "switch.shellyplus1_aabbcc".
func (s *HAEntityState) ObjectID() string {
	if idx := strings.Index(s.EntityID, "."); idx >= 0 {
		return s.EntityID[idx+1:]
	}
	return s.EntityID
}

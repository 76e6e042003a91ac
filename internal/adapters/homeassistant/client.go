package homeassistant

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Client combines the REST and WebSocket clients behind one surface.
// Registry data prefers the WebSocket API (always available to
// add-ons) and falls back to the REST endpoints where one exists.
type Client struct {
	rest   *RestClient
	ws     *WebSocketClient
	logger *logrus.Logger
}

// NewClient creates a combined Home Assistant client
func NewClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		rest:   NewRestClient(baseURL, token, timeout, logger),
		ws:     NewWebSocketClient(baseURL, token, timeout, logger),
		logger: logger,
	}
}

// TestConnection verifies hub reachability
func (c *Client) TestConnection(ctx context.Context) error {
	return c.rest.TestConnection(ctx)
}

// States fetches all entity states
func (c *Client) States(ctx context.Context) ([]HAEntityState, error) {
	return c.rest.States(ctx)
}

// DeviceRegistry fetches the device registry, WebSocket first. A
// rejected token fails the same way over REST, so only transport
// failures trigger the fallback.
func (c *Client) DeviceRegistry(ctx context.Context) ([]HADevice, error) {
	devices, err := c.ws.DeviceRegistry(ctx)
	if err == nil {
		return devices, nil
	}
	if !IsConnectionError(err) {
		return nil, err
	}

	c.logger.WithError(err).Debug("WebSocket device registry failed, falling back to REST")
	return c.rest.DeviceRegistry(ctx)
}

// ConfigEntries fetches config entries. The WebSocket list command is
// tried first; on failure the referenced entries are fetched one by
// one over REST.
func (c *Client) ConfigEntries(ctx context.Context, entryIDs []string) ([]HAConfigEntry, error) {
	entries, err := c.ws.ConfigEntries(ctx)
	if err == nil {
		return entries, nil
	}
	if !IsConnectionError(err) {
		return nil, err
	}

	c.logger.WithError(err).Debug("WebSocket config entries failed, falling back to per-entry REST")

	seen := make(map[string]bool, len(entryIDs))
	var result []HAConfigEntry
	for _, entryID := range entryIDs {
		if entryID == "" || seen[entryID] {
			continue
		}
		seen[entryID] = true

		entry, err := c.rest.ConfigEntry(ctx, entryID)
		if err != nil {
			c.logger.WithError(err).WithField("entry_id", entryID).Debug("Could not fetch config entry")
			continue
		}
		result = append(result, *entry)
	}

	if len(result) == 0 && len(entryIDs) > 0 {
		return nil, NewHAError(0, "config entries unavailable", "all fetch paths failed")
	}
	return result, nil
}

package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RestClient talks to the Home Assistant HTTP API. Inside an add-on
// container the base URL is the supervisor proxy (http://supervisor/core)
// and the token is SUPERVISOR_TOKEN.
type RestClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewRestClient creates a new Home Assistant REST client
func NewRestClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *RestClient {
	return &RestClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// TestConnection verifies the API is reachable and the token is valid
func (c *RestClient) TestConnection(ctx context.Context) error {
	if c.token == "" {
		return ErrMissingToken
	}

	var result map[string]interface{}
	if err := c.getJSON(ctx, "/api/", &result); err != nil {
		return err
	}

	c.logger.WithField("message", result["message"]).Debug("Connected to Home Assistant API")
	return nil
}

// States fetches all entity states
func (c *RestClient) States(ctx context.Context) ([]HAEntityState, error) {
	var states []HAEntityState
	if err := c.getJSON(ctx, "/api/states", &states); err != nil {
		return nil, err
	}

	c.logger.WithField("entity_count", len(states)).Debug("Fetched entity states")
	return states, nil
}

// DeviceRegistry fetches the device registry over REST. Not every
// Home Assistant version exposes this endpoint; callers should treat
// a failure as "registry unavailable", not fatal.
func (c *RestClient) DeviceRegistry(ctx context.Context) ([]HADevice, error) {
	var devices []HADevice
	if err := c.getJSON(ctx, "/api/config/device_registry/list", &devices); err != nil {
		return nil, err
	}

	c.logger.WithField("device_count", len(devices)).Debug("Fetched device registry via REST")
	return devices, nil
}

// ConfigEntry fetches a single config entry by id
func (c *RestClient) ConfigEntry(ctx context.Context, entryID string) (*HAConfigEntry, error) {
	var entry HAConfigEntry
	if err := c.getJSON(ctx, "/api/config/config_entries/entry/"+entryID, &entry); err != nil {
		return nil, err
	}
	if entry.EntryID == "" {
		entry.EntryID = entryID
	}
	return &entry, nil
}

func (c *RestClient) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return NewHAError(resp.StatusCode, "API request failed", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewHAError(0, ErrInvalidResponse.Message, err.Error())
	}

	return nil
}

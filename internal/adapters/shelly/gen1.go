package shelly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Gen1Client talks to Gen1 devices over their plain HTTP API
type Gen1Client struct {
	ip         string
	password   string
	baseURL    string
	httpClient *http.Client
}

// NewGen1Client creates a client for a Gen1 device
func NewGen1Client(ip, password string, timeout time.Duration) *Gen1Client {
	return &Gen1Client{
		ip:         ip,
		password:   password,
		baseURL:    fmt.Sprintf("http://%s", ip),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Gen1Client) Generation() Generation {
	return Gen1
}

// GetDeviceInfo fetches the unauthenticated /shelly endpoint
func (c *Gen1Client) GetDeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	var data struct {
		Type string `json:"type"`
		MAC  string `json:"mac"`
		Auth bool   `json:"auth"`
		FW   string `json:"fw"`
	}
	if err := c.getJSON(ctx, "/shelly", false, &data); err != nil {
		return nil, err
	}

	return &DeviceInfo{
		Type:        data.Type,
		MAC:         data.MAC,
		AuthEnabled: data.Auth,
		Firmware:    data.FW,
		Generation:  Gen1,
	}, nil
}

// GetStatus fetches /status
func (c *Gen1Client) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	var status map[string]interface{}
	if err := c.getJSON(ctx, "/status", true, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetSettings fetches /settings
func (c *Gen1Client) GetSettings(ctx context.Context) (map[string]interface{}, error) {
	var settings map[string]interface{}
	if err := c.getJSON(ctx, "/settings", true, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SetAuth enables or disables login protection via /settings/login
func (c *Gen1Client) SetAuth(ctx context.Context, enable bool, password string) *CommandResult {
	params := url.Values{}
	if enable {
		params.Set("enabled", "1")
		params.Set("password", password)
	} else {
		params.Set("enabled", "0")
		params.Set("password", "")
	}
	params.Set("username", defaultUsername)

	var response map[string]interface{}
	if err := c.getJSON(ctx, "/settings/login?"+params.Encode(), true, &response); err != nil {
		return &CommandResult{Success: false, Error: err.Error()}
	}
	return &CommandResult{Success: true, Response: response}
}

// Reboot triggers /reboot
func (c *Gen1Client) Reboot(ctx context.Context) error {
	var response map[string]interface{}
	return c.getJSON(ctx, "/reboot", true, &response)
}

// UpdateFirmware triggers /ota?update=true
func (c *Gen1Client) UpdateFirmware(ctx context.Context) *CommandResult {
	var response map[string]interface{}
	if err := c.getJSON(ctx, "/ota?update=true", true, &response); err != nil {
		return &CommandResult{Success: false, Error: err.Error()}
	}
	return &CommandResult{Success: true, Response: response}
}

func (c *Gen1Client) getJSON(ctx context.Context, path string, authenticated bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}

	if authenticated && c.password != "" {
		req.SetBasicAuth(defaultUsername, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("authentication required by device %s", c.ip)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device %s returned status %d", c.ip, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

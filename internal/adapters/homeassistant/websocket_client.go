package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketClient fetches registry data over the Home Assistant
// WebSocket API. A fresh connection is opened per request and closed
// after the response; the message id counter is shared across calls.
type WebSocketClient struct {
	wsURL   string
	token   string
	timeout time.Duration
	logger  *logrus.Logger

	mutex     sync.Mutex
	messageID int
}

type wsMessage struct {
	ID      int             `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewWebSocketClient creates a new Home Assistant WebSocket client
func NewWebSocketClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *WebSocketClient {
	return &WebSocketClient{
		wsURL:   websocketURL(baseURL),
		token:   token,
		timeout: timeout,
		logger:  logger,
	}
}

// websocketURL derives the WebSocket endpoint from the REST base URL.
// The supervisor proxy exposes it at /core/websocket, a direct Home
// Assistant instance at /api/websocket.
func websocketURL(baseURL string) string {
	wsBase := strings.Replace(baseURL, "http", "ws", 1)
	if strings.HasSuffix(baseURL, "/core") {
		return wsBase + "/websocket"
	}
	return wsBase + "/api/websocket"
}

// DeviceRegistry fetches the device registry
func (c *WebSocketClient) DeviceRegistry(ctx context.Context) ([]HADevice, error) {
	var devices []HADevice
	if err := c.fetch(ctx, "config/device_registry/list", &devices); err != nil {
		return nil, err
	}

	c.logger.WithField("device_count", len(devices)).Debug("Fetched device registry via WebSocket")
	return devices, nil
}

// ConfigEntries fetches all config entries
func (c *WebSocketClient) ConfigEntries(ctx context.Context) ([]HAConfigEntry, error) {
	var entries []HAConfigEntry
	if err := c.fetch(ctx, "config_entries/list", &entries); err != nil {
		return nil, err
	}

	c.logger.WithField("entry_count", len(entries)).Debug("Fetched config entries via WebSocket")
	return entries, nil
}

// fetch runs one authenticated request/response exchange
func (c *WebSocketClient) fetch(ctx context.Context, msgType string, out interface{}) error {
	if c.token == "" {
		return ErrMissingToken
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	if err := c.authenticate(conn); err != nil {
		return err
	}

	id := c.nextID()
	request := map[string]interface{}{
		"id":   id,
		"type": msgType,
	}
	if err := conn.WriteJSON(request); err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}

	// Responses are correlated by id; event frames from other
	// subscriptions on the socket are skipped.
	for {
		var response wsMessage
		if err := conn.ReadJSON(&response); err != nil {
			return NewHAError(0, ErrConnectionFailed.Message, err.Error())
		}

		if response.Type != "result" || response.ID != id {
			continue
		}

		if response.Success == nil || !*response.Success {
			if response.Error != nil {
				return NewHAError(0, "WebSocket command failed", fmt.Sprintf("%s: %s", response.Error.Code, response.Error.Message))
			}
			return NewHAError(0, "WebSocket command failed", msgType)
		}

		if err := json.Unmarshal(response.Result, out); err != nil {
			return NewHAError(0, ErrInvalidResponse.Message, err.Error())
		}
		return nil
	}
}

// authenticate performs the auth_required/auth/auth_ok handshake
func (c *WebSocketClient) authenticate(conn *websocket.Conn) error {
	var authRequired wsMessage
	if err := conn.ReadJSON(&authRequired); err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}
	if authRequired.Type != "auth_required" {
		return NewHAError(0, ErrWebSocketAuth.Message, fmt.Sprintf("expected auth_required, got %s", authRequired.Type))
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":         "auth",
		"access_token": c.token,
	}); err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}

	var authResult wsMessage
	if err := conn.ReadJSON(&authResult); err != nil {
		return NewHAError(0, ErrConnectionFailed.Message, err.Error())
	}
	if authResult.Type != "auth_ok" {
		return NewHAError(http.StatusUnauthorized, ErrWebSocketAuth.Message, authResult.Type)
	}

	return nil
}

func (c *WebSocketClient) nextID() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.messageID++
	return c.messageID
}

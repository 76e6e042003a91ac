package shelly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer decodes the RPC request and replies with the given result
func rpcServer(t *testing.T, captured *gen2RPCRequest, result interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rpc", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req gen2RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if captured != nil {
			*captured = req
		}

		raw, err := json.Marshal(result)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     req.ID,
			"result": json.RawMessage(raw),
		})
	}))
}

func TestGen2GetDeviceInfo(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, map[string]interface{}{
		"model":   "SNSW-001X16EU",
		"mac":     "A8032AB12345",
		"auth_en": true,
		"fw_id":   "20231219-133953/1.1.0-g34b5d4f",
		"name":    "Plus 1 kitchen",
	})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "", time.Second)
	info, err := client.GetDeviceInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Shelly.GetDeviceInfo", req.Method)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "SNSW-001X16EU", info.Type)
	assert.Equal(t, "A8032AB12345", info.MAC)
	assert.True(t, info.AuthEnabled)
	assert.Equal(t, "20231219-133953/1.1.0-g34b5d4f", info.Firmware)
	assert.Equal(t, "Plus 1 kitchen", info.Name)
	assert.Equal(t, Gen2, info.Generation)
}

func TestGen2FirmwareFallsBackToVer(t *testing.T) {
	server := rpcServer(t, nil, map[string]interface{}{
		"model": "Plus1",
		"ver":   "1.1.0",
	})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "", time.Second)
	info, err := client.GetDeviceInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.1.0", info.Firmware)
}

func TestGen2PasswordInjectedIntoParams(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, map[string]interface{}{})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "secret", time.Second)
	_, err := client.GetStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Shelly.GetStatus", req.Method)
	params, ok := req.Params.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "secret", params["password"])
}

func TestGen2SetAuth(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, map[string]interface{}{"restart_required": false})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "secret", time.Second)
	result := client.SetAuth(context.Background(), true, "secret")

	require.True(t, result.Success)
	assert.Equal(t, "Sys.SetConfig", req.Method)

	params := req.Params.(map[string]interface{})
	config := params["config"].(map[string]interface{})
	auth := config["auth"].(map[string]interface{})
	assert.Equal(t, true, auth["enable"])
	assert.Equal(t, "admin", auth["user"])
	assert.Equal(t, "secret", auth["pass"])
}

func TestGen2SetAuthDisableClearsPassword(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, map[string]interface{}{})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "secret", time.Second)
	result := client.SetAuth(context.Background(), false, "secret")

	require.True(t, result.Success)
	auth := req.Params.(map[string]interface{})["config"].(map[string]interface{})["auth"].(map[string]interface{})
	assert.Equal(t, false, auth["enable"])
	assert.Equal(t, "", auth["pass"])
}

func TestGen2UpdateFirmwareStableStage(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, map[string]interface{}{})
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "", time.Second)
	result := client.UpdateFirmware(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, "Shelly.Update", req.Method)
	assert.Equal(t, "stable", req.Params.(map[string]interface{})["stage"])
}

func TestGen2RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gen2RPCRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    req.ID,
			"error": map[string]interface{}{"code": 401, "message": "Unauthorized"},
		})
	}))
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "", time.Second)
	_, err := client.GetStatus(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestGen2Reboot(t *testing.T) {
	var req gen2RPCRequest
	server := rpcServer(t, &req, nil)
	defer server.Close()

	client := NewGen2Client(deviceAddr(server), "", time.Second)
	require.NoError(t, client.Reboot(context.Background()))
	assert.Equal(t, "Shelly.Reboot", req.Method)
}

package shelly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func deviceAddr(server *httptest.Server) string {
	return strings.TrimPrefix(server.URL, "http://")
}

func TestDetectGen2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rpc/Shelly.GetDeviceInfo" {
			w.Write([]byte(`{"id":"shellyplus1-a8032ab12345","gen":2}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewProber(time.Second, testLogger()).Detect(context.Background(), deviceAddr(server))
	assert.Equal(t, Gen2, gen)
}

func TestDetectGen1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shelly" {
			w.Write([]byte(`{"type":"SHSW-1","mac":"AABBCCDDEEFF","auth":false,"fw":"20230913"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewProber(time.Second, testLogger()).Detect(context.Background(), deviceAddr(server))
	assert.Equal(t, Gen1, gen)
}

func TestDetectPrefersGen2WhenBothAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Answers both the RPC discovery endpoint and /shelly
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gen := NewProber(time.Second, testLogger()).Detect(context.Background(), deviceAddr(server))
	assert.Equal(t, Gen2, gen)
}

func TestDetectUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := deviceAddr(server)
	server.Close()

	gen := NewProber(200*time.Millisecond, testLogger()).Detect(context.Background(), addr)
	assert.Equal(t, GenUnknown, gen)
}

func TestDetectNonShellyService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewProber(time.Second, testLogger()).Detect(context.Background(), deviceAddr(server))
	assert.Equal(t, GenUnknown, gen)
}

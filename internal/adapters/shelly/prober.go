package shelly

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Prober classifies a device's protocol generation by live probing.
// Hub metadata is never consulted; it can be stale or absent.
type Prober struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewProber creates a prober with the given per-probe timeout
func NewProber(timeout time.Duration, logger *logrus.Logger) *Prober {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Prober{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Detect probes the Gen2 RPC endpoint first, then the Gen1 /shelly
// endpoint. Gen2 is tried first because its discovery endpoint is
// cheap and Gen2+ is the modern default; a device answering both is
// classified Gen2.
func (p *Prober) Detect(ctx context.Context, ip string) Generation {
	if p.probe(ctx, fmt.Sprintf("http://%s/rpc/Shelly.GetDeviceInfo", ip)) {
		return Gen2
	}
	if p.probe(ctx, fmt.Sprintf("http://%s/shelly", ip)) {
		return Gen1
	}

	p.logger.WithField("ip", ip).Debug("Generation probe exhausted, device unreachable or not a Shelly")
	return GenUnknown
}

func (p *Prober) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

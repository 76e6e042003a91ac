package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config controls collector behavior. Prefix namespaces every metric.
type Config struct {
	Enabled bool
	Prefix  string
}

// PrometheusCollector records request and device operation metrics
type PrometheusCollector struct {
	config *Config

	// HTTP Metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Device Metrics
	deviceOperations *prometheus.CounterVec
	generationProbes *prometheus.CounterVec

	// Scan Metrics
	scanDuration    prometheus.Histogram
	devicesLocated  prometheus.Gauge
	devicesEnriched prometheus.Gauge
}

// NewPrometheusCollector creates a new Prometheus metrics collector
func NewPrometheusCollector(config *Config) *PrometheusCollector {
	if config == nil {
		config = &Config{
			Enabled: true,
			Prefix:  "shelly_manager",
		}
	}

	prefix := config.Prefix

	collector := &PrometheusCollector{config: config}

	collector.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	collector.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	collector.deviceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_device_operations_total",
			Help: "Total number of Shelly device operations",
		},
		[]string{"generation", "operation", "success"},
	)

	collector.generationProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_generation_probes_total",
			Help: "Total number of generation detection probes",
		},
		[]string{"result"},
	)

	collector.scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_scan_duration_seconds",
			Help:    "Full discovery scan duration in seconds",
			Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
	)

	collector.devicesLocated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_devices_located",
			Help: "Number of devices located in the last scan",
		},
	)

	collector.devicesEnriched = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_devices_enriched",
			Help: "Number of devices that answered live queries in the last scan",
		},
	)

	return collector
}

// RecordHTTPRequest records HTTP request metrics
func (p *PrometheusCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !p.config.Enabled {
		return
	}

	p.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDeviceOperation records one device command
func (p *PrometheusCollector) RecordDeviceOperation(generation, operation string, success bool) {
	if !p.config.Enabled {
		return
	}

	successStr := "false"
	if success {
		successStr = "true"
	}

	p.deviceOperations.WithLabelValues(generation, operation, successStr).Inc()
}

// RecordGenerationProbe records the outcome of one detection probe
func (p *PrometheusCollector) RecordGenerationProbe(result string) {
	if !p.config.Enabled {
		return
	}

	p.generationProbes.WithLabelValues(result).Inc()
}

// RecordScan records the outcome of a full discovery pass
func (p *PrometheusCollector) RecordScan(located, enriched int, duration time.Duration) {
	if !p.config.Enabled {
		return
	}

	p.scanDuration.Observe(duration.Seconds())
	p.devicesLocated.Set(float64(located))
	p.devicesEnriched.Set(float64(enriched))
}

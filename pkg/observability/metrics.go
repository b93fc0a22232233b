package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Service identification
	ServiceName    string `json:"service_name"`
	ServiceVersion string `json:"service_version"`
	Environment    string `json:"environment"`

	// Prometheus configuration
	MetricsPath string `json:"metrics_path"` // HTTP path for metrics endpoint (default: /metrics)
	MetricsPort int    `json:"metrics_port"` // Port for metrics server (default: 9090)

	Namespace        string    `json:"namespace"` // default: tcpprovider
	Subsystem        string    `json:"subsystem"`
	HistogramBuckets []float64 `json:"histogram_buckets"`

	// Labels to add to all metrics
	ConstLabels prometheus.Labels `json:"const_labels,omitempty"`

	// Registry receives the collectors; nil selects a fresh private registry.
	Registry *prometheus.Registry `json:"-"`
}

// MetricsProvider records provider and initializer activity
type MetricsProvider interface {
	// Listener lifecycle; event is "started" or "stopped"
	RecordListenerEvent(serverNumber int, event string)

	// Initializer hooks
	RecordPrepare(status string, duration time.Duration)
	RecordFormatterSelection(formatter string)

	// Connection setup as seen by the provider; side is "client" or "server"
	RecordConnectionSetup(side, status string, duration time.Duration)
	RecordActiveConnections(side string, delta int)

	// Handler exposes the registry over HTTP
	Handler() http.Handler

	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	config   MetricsConfig
	registry *prometheus.Registry

	mu     sync.Mutex
	server *http.Server

	listenerEvents        *prometheus.CounterVec
	activeListeners       prometheus.Gauge
	prepareDuration       *prometheus.HistogramVec
	prepareTotal          *prometheus.CounterVec
	formatterSelections   *prometheus.CounterVec
	connectionSetupTotal  *prometheus.CounterVec
	connectionSetupLength *prometheus.HistogramVec
	activeConnections     *prometheus.GaugeVec
}

// NewMetricsProvider creates a new Prometheus metrics provider
func NewMetricsProvider(config MetricsConfig) (MetricsProvider, error) {
	return newPrometheusMetricsProvider(config)
}

func newPrometheusMetricsProvider(config MetricsConfig) (*PrometheusMetricsProvider, error) {
	if config.Namespace == "" {
		config.Namespace = "tcpprovider"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.MetricsPort == 0 {
		config.MetricsPort = 9090
	}
	if config.HistogramBuckets == nil {
		// Socket option calls are sub-millisecond; setup includes dial/accept.
		config.HistogramBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250}
	}
	if config.ConstLabels == nil {
		config.ConstLabels = prometheus.Labels{}
	}
	if config.ServiceName != "" {
		config.ConstLabels["service"] = config.ServiceName
	}
	if config.ServiceVersion != "" {
		config.ConstLabels["version"] = config.ServiceVersion
	}
	if config.Environment != "" {
		config.ConstLabels["environment"] = config.Environment
	}

	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	p := &PrometheusMetricsProvider{config: config, registry: registry}
	p.initializeMetrics()
	if err := p.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return p, nil
}

func (p *PrometheusMetricsProvider) initializeMetrics() {
	p.listenerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "listener_events_total",
			Help:        "Listener lifecycle notifications",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"server_number", "event"},
	)

	p.activeListeners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "active_listeners",
			Help:        "Listeners between started and stopped",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.prepareDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "socket_prepare_duration_milliseconds",
			Help:        "Duration of socket preparation in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.prepareTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "socket_prepare_total",
			Help:        "Socket preparation calls",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.formatterSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "formatter_selections_total",
			Help:        "Formatter selections by formatter name (\"default\" when none was chosen)",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"formatter"},
	)

	p.connectionSetupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "connection_setup_total",
			Help:        "Connection setups by side and outcome",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"side", "status"},
	)

	p.connectionSetupLength = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "connection_setup_duration_milliseconds",
			Help:        "Duration of connection setup in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"side", "status"},
	)

	p.activeConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "active_connections",
			Help:        "Established connections",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"side"},
	)
}

func (p *PrometheusMetricsProvider) registerMetrics() error {
	collectors := []prometheus.Collector{
		p.listenerEvents,
		p.activeListeners,
		p.prepareDuration,
		p.prepareTotal,
		p.formatterSelections,
		p.connectionSetupTotal,
		p.connectionSetupLength,
		p.activeConnections,
	}

	for _, collector := range collectors {
		if err := p.registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordListenerEvent records a listener notification
func (p *PrometheusMetricsProvider) RecordListenerEvent(serverNumber int, event string) {
	p.listenerEvents.WithLabelValues(strconv.Itoa(serverNumber), event).Inc()
	switch event {
	case "started":
		p.activeListeners.Inc()
	case "stopped":
		p.activeListeners.Dec()
	}
}

// RecordPrepare records one socket preparation
func (p *PrometheusMetricsProvider) RecordPrepare(status string, duration time.Duration) {
	p.prepareDuration.WithLabelValues(status).Observe(milliseconds(duration))
	p.prepareTotal.WithLabelValues(status).Inc()
}

// RecordFormatterSelection records which formatter a connection received
func (p *PrometheusMetricsProvider) RecordFormatterSelection(formatter string) {
	p.formatterSelections.WithLabelValues(formatter).Inc()
}

// RecordConnectionSetup records one connection setup attempt
func (p *PrometheusMetricsProvider) RecordConnectionSetup(side, status string, duration time.Duration) {
	p.connectionSetupTotal.WithLabelValues(side, status).Inc()
	p.connectionSetupLength.WithLabelValues(side, status).Observe(milliseconds(duration))
}

// RecordActiveConnections records the change in active connections
func (p *PrometheusMetricsProvider) RecordActiveConnections(side string, delta int) {
	p.activeConnections.WithLabelValues(side).Add(float64(delta))
}

// Handler serves the provider's registry in the Prometheus text format
func (p *PrometheusMetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Start starts the metrics HTTP server
func (p *PrometheusMetricsProvider) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(p.config.MetricsPath, p.Handler())

	p.mu.Lock()
	p.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", p.config.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := p.server
	p.mu.Unlock()

	go func() {
		_ = server.ListenAndServe()
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server
func (p *PrometheusMetricsProvider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	server := p.server
	p.mu.Unlock()
	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// nopMetrics discards everything.
type nopMetrics struct{}

// NopMetrics returns a MetricsProvider that records nothing.
func NopMetrics() MetricsProvider { return nopMetrics{} }

func (nopMetrics) RecordListenerEvent(int, string)                     {}
func (nopMetrics) RecordPrepare(string, time.Duration)                 {}
func (nopMetrics) RecordFormatterSelection(string)                     {}
func (nopMetrics) RecordConnectionSetup(string, string, time.Duration) {}
func (nopMetrics) RecordActiveConnections(string, int)                 {}
func (nopMetrics) Handler() http.Handler                               { return http.NotFoundHandler() }
func (nopMetrics) Start(context.Context) error                         { return nil }
func (nopMetrics) Shutdown(context.Context) error                      { return nil }

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cospark/hubspot-proxy/internal/version"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight       prometheus.Gauge
	reqTotal       *prometheus.CounterVec
	reqDur         *prometheus.HistogramVec
	respBytes      *prometheus.HistogramVec
	httpPanicTotal prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec

	profilingActive prometheus.Gauge

	// proxy metrics
	corsDeniedTotal       prometheus.Counter
	validationFailedTotal prometheus.Counter
	upsertsTotal          *prometheus.CounterVec
	hubspotReqTotal       *prometheus.CounterVec
	hubspotReqDur         *prometheus.HistogramVec
}

// New returns a fresh registry + standard collectors + HTTP and proxy metrics
// safe labels only (method, route, code, operation) to avoid cardinality explosions
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: []float64{256, 1024, 4096, 16384, 65536},
		}, []string{"method", "route"}),
		httpPanicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total number of recovered httpserver panics",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP server errors by method and route (SLI)",
		}, []string{"method", "route"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
		corsDeniedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cors_denied_total",
			Help: "Total requests rejected by the Origin allow-list",
		}),
		validationFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contact_validation_failed_total",
			Help: "Total contact submissions rejected by validation",
		}),
		upsertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_upserts_total",
			Help: "Total contact upserts by outcome (created, updated, error)",
		}, []string{"outcome"}),
		hubspotReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hubspot_requests_total",
			Help: "Total outbound HubSpot API calls by operation and status (0 = no response)",
		}, []string{"operation", "status"}),
		hubspotReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hubspot_request_duration_seconds",
			Help:    "Outbound HubSpot call latency by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.httpPanicTotal,
		m.errorsTotal,
		m.buildInfo,
		m.profilingActive,
		m.corsDeniedTotal,
		m.validationFailedTotal,
		m.upsertsTotal,
		m.hubspotReqTotal,
		m.hubspotReqDur,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

func (m *ServerMetrics) Handler() http.Handler {
	return m.handler
}

func (m *ServerMetrics) IncHttpPanic() {
	m.httpPanicTotal.Inc()
}

func (m *ServerMetrics) IncCORSDenied() {
	m.corsDeniedTotal.Inc()
}

func (m *ServerMetrics) IncValidationFailed() {
	m.validationFailedTotal.Inc()
}

func (m *ServerMetrics) IncUpsert(outcome string) {
	m.upsertsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHubSpot records one outbound CRM call. Status 0 means the
// request never got a response.
func (m *ServerMetrics) ObserveHubSpot(operation string, status int, d time.Duration) {
	m.hubspotReqTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.hubspotReqDur.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *ServerMetrics) SetProfilingActive(active bool) {
	if active {
		m.profilingActive.Set(1)
	} else {
		m.profilingActive.Set(0)
	}
}

// set once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(app, component string, vi version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         app,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_id":    vi.BuildId,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

// Package observability holds the service's domain metrics. Collectors are
// created once and attached to a registry by Init; until then every Observe
// call is a no-op.
package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	markerOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapnotes_marker_ops_total",
			Help: "Marker mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	importRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapnotes_import_rows_total",
			Help: "CSV rows processed by import, by outcome.",
		},
		[]string{"outcome"},
	)

	storageOpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapnotes_storage_op_duration_seconds",
			Help:    "Latency of key-value storage operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"backend", "op", "result"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapnotes_events_total",
			Help: "Change events by type and delivery outcome.",
		},
		[]string{"type", "outcome"},
	)

	reportRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapnotes_report_renders_total",
			Help: "Export renders by format and cache outcome.",
		},
		[]string{"format", "cache"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		markerOpsTotal,
		importRowsTotal,
		storageOpSeconds,
		eventsTotal,
		reportRendersTotal,
	}
}

// Init attaches the collectors to reg. Registering on the same registry twice
// is tolerated.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if !on || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveMarkerOp counts add/update/image/remove outcomes such as "ok",
// "duplicate", "invalid" and "not_found".
func ObserveMarkerOp(op, outcome string) {
	if !enabled.Load() {
		return
	}
	markerOpsTotal.WithLabelValues(op, outcome).Inc()
}

func AddImportRows(outcome string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	importRowsTotal.WithLabelValues(outcome).Add(float64(n))
}

func ObserveStorageOp(backend, op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	storageOpSeconds.WithLabelValues(backend, op, result).Observe(durationSeconds)
}

func ObserveEvent(typ, outcome string) {
	if !enabled.Load() {
		return
	}
	eventsTotal.WithLabelValues(typ, outcome).Inc()
}

func ObserveReportRender(format string, cached bool) {
	if !enabled.Load() {
		return
	}
	c := "miss"
	if cached {
		c = "hit"
	}
	reportRendersTotal.WithLabelValues(format, c).Inc()
}

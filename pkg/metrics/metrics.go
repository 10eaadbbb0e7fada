// Package metrics provides Prometheus metrics collection for the bridge's
// HTTP surface and its upstream chat calls.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lewisedginton/chatbridge/pkg/logger"
)

const (
	subsystem = "chatbridge"
)

// Chat call outcome labels.
const (
	ChatOutcomeSuccess   = "success"
	ChatOutcomeTransport = "transport_error"
	ChatOutcomeAPIStatus = "api_error"
	ChatOutcomeDecode    = "decode_error"
)

// Metrics provides Prometheus metrics collection.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram
	// Pointer so Metrics stays copyable as a value
	countersMu *sync.Mutex

	ChatRequestsCounter   *prometheus.CounterVec
	ChatDurationHistogram prometheus.Histogram
	ProbeRequestsCounter  *prometheus.CounterVec

	stopChan chan os.Signal
	errChan  chan error
	log      logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, chatCounters bool, l logger.Logger) Metrics {
	m := Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)
		m.countersMu = &sync.Mutex{}

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if chatCounters {
		m.ChatRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Upstream chat requests by outcome",
		}, []string{"outcome"})
		m.reg.MustRegister(m.ChatRequestsCounter)

		m.ProbeRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "probe_requests_total",
			Help:      "Endpoint connectivity probes by outcome",
		}, []string{"outcome"})
		m.reg.MustRegister(m.ProbeRequestsCounter)

		// Chat calls are unbounded; the top bucket is deliberately large
		m.ChatDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "chat_request_duration_seconds",
			Help:      "Upstream chat request duration in seconds",
			Buckets:   []float64{0.5, 1.0, 3.0, 5.0, 10.0, 30.0, 60.0, 120.0},
		})
		m.reg.MustRegister(m.ChatDurationHistogram)
	}
	return m
}

// ObserveChatRequest records one upstream chat call.
func (m *Metrics) ObserveChatRequest(outcome string, duration time.Duration) {
	if m.ChatRequestsCounter == nil {
		return
	}
	m.ChatRequestsCounter.WithLabelValues(outcome).Inc()
	m.ChatDurationHistogram.Observe(duration.Seconds())
}

// IncrementProbeCounter records one endpoint probe.
func (m *Metrics) IncrementProbeCounter(outcome string) {
	if m.ProbeRequestsCounter == nil {
		return
	}
	m.ProbeRequestsCounter.WithLabelValues(outcome).Inc()
}

// Listen starts the metrics HTTP server on the specified port.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal)
	errChan := make(chan error)
	go func() {
		errChan <- server.ListenAndServe()
	}()
	go func() {
		for {
			sig := <-sigChan
			if sig == os.Interrupt {
				m.log.Info("Stopping metrics listener")
				_ = server.Shutdown(context.Background())
				return
			}
		}
	}()
	m.errChan = errChan
	m.stopChan = sigChan
}

// Handler returns the /metrics handler for mounting on an existing router.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP
// status code, registering it on first sight. Counters are registered
// lazily from concurrent request goroutines, so the map is mutex-guarded.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	if m.HTTPRequestsCounters == nil {
		return
	}
	m.countersMu.Lock()
	counter, ok := m.HTTPRequestsCounters[code]
	if !ok {
		counter = newTotalHTTPReqMetric(code)
		m.HTTPRequestsCounters[code] = counter
		m.reg.MustRegister(counter)
	}
	m.countersMu.Unlock()
	counter.Inc()
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP
// metrics. When the HTTP collectors are disabled it passes requests
// through untouched.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	if m.TotalHTTPRequestsCounter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.TotalHTTPRequestsCounter.Inc()

			rw := &responseWriter{ResponseWriter: w, statusCode: 200}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			m.HTTPDurationHistogram.Observe(duration.Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package metrics provides Prometheus metrics collection for HTTP requests
// and memory store operations.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/lewisedginton/agent_memory_service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "app"
)

// Metrics provides Prometheus metrics collection for HTTP requests and
// memory store operations.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	httpCountersMux          *sync.Mutex
	HTTPDurationHistogram    prometheus.Histogram

	OpMetricCounters map[int]prometheus.Counter

	customMetrics []prometheus.Collector

	stopChan chan os.Signal
	errChan  chan error
	log      logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, opMetrics bool, l logger.Logger) Metrics {
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
		m.httpCountersMux = &sync.Mutex{}

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if opMetrics {
		m.OpMetricCounters = getOpMetricCounters()
		for k := range m.OpMetricCounters {
			m.reg.MustRegister(m.OpMetricCounters[k])
		}
	}
	return m
}

// Listen starts the metrics HTTP server on the specified port.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
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

// Memory operation counter indices.
const (
	OpMetricMemoriesStored = iota
	OpMetricMemoriesDegraded
	OpMetricRetrievals
	OpMetricFeedbackStored
)

func getOpMetricCounters() map[int]prometheus.Counter {
	m := make(map[int]prometheus.Counter)
	m[OpMetricMemoriesStored] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_memories_stored",
		Help:      "Total memory entries stored",
	})
	m[OpMetricMemoriesDegraded] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_memories_degraded",
		Help:      "Total memory entries stored without a searchable embedding",
	})
	m[OpMetricRetrievals] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_memory_retrievals",
		Help:      "Total similarity retrieval queries",
	})
	m[OpMetricFeedbackStored] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_feedback_stored",
		Help:      "Total feedback entries stored",
	})
	return m
}

// IncrementOpMetric increments the operation counter with the given index,
// a no-op when operation metrics are disabled.
func (m *Metrics) IncrementOpMetric(index int) {
	if counter, ok := m.OpMetricCounters[index]; ok {
		counter.Inc()
	}
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP
// status code. Counters are registered lazily under a mutex; concurrent
// request handlers hit this for every response.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	m.httpCountersMux.Lock()
	counter, ok := m.HTTPRequestsCounters[code]
	if !ok {
		counter = newTotalHTTPReqMetric(code)
		m.HTTPRequestsCounters[code] = counter
		m.reg.MustRegister(counter)
	}
	m.httpCountersMux.Unlock()
	counter.Inc()
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP metrics
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Increment total requests counter
			m.TotalHTTPRequestsCounter.Inc()

			// Create a response writer that captures the status code
			rw := &responseWriter{ResponseWriter: w, statusCode: 200}

			// Call the next handler
			next.ServeHTTP(rw, r)

			// Record metrics
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

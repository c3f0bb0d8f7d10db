package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solrq",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// Exports stream for minutes; the upper buckets are for them.
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 60, 300},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpResponseBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "http_response_bytes_total",
			Help:      "Response body bytes written",
		},
		[]string{"method", "path"},
	)

	httpStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "http_streams_total",
			Help:      "NDJSON streams by outcome (complete, aborted)",
		},
		[]string{"path", "outcome"},
	)

	httpStreamFirstByte = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solrq",
			Name:      "http_stream_first_byte_seconds",
			Help:      "Time until the first document of an NDJSON stream was written",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

const contentTypeNDJSON = "application/x-ndjson"

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpResponseBytes)
	prometheus.MustRegister(httpStreamsTotal)
	prometheus.MustRegister(httpStreamFirstByte)
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	streamErrorTrailer string
}

// WithStreamErrorTrailer names the trailer a streaming handler sets when it
// fails after the status line went out. Streams carrying it count as aborted.
func WithStreamErrorTrailer(name string) MiddlewareOption {
	return func(c *middlewareConfig) { c.streamErrorTrailer = name }
}

// Middleware records HTTP request duration, count and response size.
// NDJSON responses are also counted as streams with their outcome and
// time to first byte.
func Middleware(opts ...MiddlewareOption) func(next http.Handler) http.Handler {
	var cfg middlewareConfig
	for _, o := range opts {
		o(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK, start: start}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)

			// Route pattern keeps label cardinality bounded.
			routePattern := chi.RouteContext(r.Context()).RoutePattern()
			path := normalizePath(routePattern)
			method := r.Method

			httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			httpResponseBytes.WithLabelValues(method, path).Add(float64(ww.bytes))

			if ww.streaming {
				outcome := "complete"
				if cfg.streamErrorTrailer != "" && ww.Header().Get(cfg.streamErrorTrailer) != "" {
					outcome = "aborted"
				}
				httpStreamsTotal.WithLabelValues(path, outcome).Inc()
				if ww.firstByte > 0 {
					httpStreamFirstByte.WithLabelValues(path).Observe(ww.firstByte.Seconds())
				}
			}
		})
	}
}

// normalizePath normalizes paths to prevent high cardinality in metrics labels.
func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}

// statusWriter captures the status code, body size and, for NDJSON
// streams, when the first bytes went out.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	streaming   bool
	start       time.Time
	firstByte   time.Duration
	bytes       int64
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.markHeader(status)
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) markHeader(status int) {
	w.status = status
	w.wroteHeader = true
	w.streaming = strings.HasPrefix(w.Header().Get("Content-Type"), contentTypeNDJSON)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.markHeader(http.StatusOK)
	}
	if w.streaming && w.firstByte == 0 && len(b) > 0 {
		w.firstByte = time.Since(w.start)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err //nolint:wrapcheck // delegating to underlying ResponseWriter
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

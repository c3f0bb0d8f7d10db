package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// Solr and cursor Prometheus metrics.
var (
	SolrRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "solr_requests_total",
			Help:      "Total number of Solr select requests",
		},
		[]string{"core", "status"},
	)

	SolrRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solrq",
			Name:      "solr_request_duration_seconds",
			Help:      "Solr select request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"core"},
	)

	CursorFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "cursor_fetches_total",
			Help:      "Total number of cursor page fetches",
		},
		[]string{"core", "result"}, // "ok" / "error"
	)

	CursorDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "cursor_documents_total",
			Help:      "Total documents read through cursors",
		},
		[]string{"core"},
	)

	ExportsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "solrq",
			Name:      "exports_in_flight",
			Help:      "Number of running exports",
		},
	)
)

var registerSolrOnce sync.Once

// RegisterSolrMetrics registers the Solr and cursor metrics. Safe to call more than once.
func RegisterSolrMetrics() {
	registerSolrOnce.Do(func() {
		prometheus.MustRegister(SolrRequestsTotal)
		prometheus.MustRegister(SolrRequestDuration)
		prometheus.MustRegister(CursorFetchesTotal)
		prometheus.MustRegister(CursorDocumentsTotal)
		prometheus.MustRegister(ExportsInFlight)
	})
}

// ObserveSolrRequest records one select request. status is the HTTP status,
// or 0 when the request never got a response.
func ObserveSolrRequest(core string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	SolrRequestsTotal.WithLabelValues(core, label).Inc()
	SolrRequestDuration.WithLabelValues(core).Observe(d.Seconds())
}

// CursorObserver records cursor fetches for a core.
type CursorObserver struct {
	core string
}

// NewCursorObserver creates an observer labelled with core.
func NewCursorObserver(core string) *CursorObserver {
	return &CursorObserver{core: core}
}

// ObserveFetch implements cursor.Observer.
func (o *CursorObserver) ObserveFetch(_ string, items int, _ time.Duration, err error) {
	if err != nil {
		CursorFetchesTotal.WithLabelValues(o.core, fetchResult(err)).Inc()
		return
	}
	CursorFetchesTotal.WithLabelValues(o.core, "ok").Inc()
	CursorDocumentsTotal.WithLabelValues(o.core).Add(float64(items))
}

func fetchResult(err error) string {
	if errors.Is(err, domain.ErrUpstream) {
		return "upstream_error"
	}
	return "error"
}

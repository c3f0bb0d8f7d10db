package solrq

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	core       string
	timeout    time.Duration
	httpClient *http.Client

	maxRows   int
	uniqueKey string
	batchSize int
	every     int

	redisAddrs    []string
	redisPassword string
	keyPrefix     string
	checkpointTTL time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithSolr sets the engine base URL (e.g. http://localhost:8983/solr) and core.
func WithSolr(baseURL, core string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.core = core
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient replaces the HTTP client. WithTimeout is ignored then.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithMaxRows rejects searches with a larger page size. Default: no limit.
func WithMaxRows(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRows = n
	})
}

// WithUniqueKey sets the core's unique key, used as the export sort
// tie-breaker. Default: "id".
func WithUniqueKey(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.uniqueKey = name
	})
}

// WithExportBatch sets the export page size and how many documents pass
// between checkpoints. Defaults: 100 and 1000.
func WithExportBatch(size, every int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
		c.every = every
	})
}

// WithRedis stores export checkpoints in Redis so exports can be resumed.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithCheckpointKeys sets the checkpoint key prefix and TTL.
// Defaults: "solrq:" and 24h.
func WithCheckpointKeys(prefix string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
		c.checkpointTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

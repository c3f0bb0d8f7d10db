package solrq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/cursor"
	"github.com/kailas-cloud/solrq/internal/db"
	dbRedis "github.com/kailas-cloud/solrq/internal/db/redis"
	checkpointrepo "github.com/kailas-cloud/solrq/internal/repository/checkpoint"
	"github.com/kailas-cloud/solrq/internal/solr"
	"github.com/kailas-cloud/solrq/internal/solr/parser"
	"github.com/kailas-cloud/solrq/internal/transport/solrhttp"
	exportuc "github.com/kailas-cloud/solrq/internal/usecase/export"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultReadinessTimeout = 10 * time.Second
	defaultCheckpointPrefix = "solrq:"
	defaultCheckpointTTL    = 24 * time.Hour
)

type (
	// SearchResult is one page of documents with its facet pages.
	SearchResult = searchuc.Result
	// ExportRequest describes an export. ResumeID continues a checkpointed one.
	ExportRequest = exportuc.Request
	// ExportProgress reports how far an export got.
	ExportProgress = exportuc.Progress
)

// Client is the solrq SDK entry point. It is safe for concurrent use;
// cursors it creates are not.
type Client struct {
	solr      *solrhttp.Client
	parser    *parser.Parser
	search    *searchuc.Service
	export    *exportuc.Service
	store     db.Store
	obs       *observer
	core      string
	logger    *zap.Logger
	hasResume bool
}

// New creates a Client. WithSolr is required. With WithRedis it also
// connects to Redis and waits until it answers.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:       defaultTimeout,
		keyPrefix:     defaultCheckpointPrefix,
		checkpointTTL: defaultCheckpointTTL,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.baseURL == "" || cfg.core == "" {
		return nil, errors.New("solrq: engine url and core required (use WithSolr)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.core, logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	sc, err := solrhttp.New(solrhttp.Config{
		BaseURL:    cfg.baseURL,
		Core:       cfg.core,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("solrq: %w", err)
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.redisPassword})
		if err != nil {
			return nil, fmt.Errorf("solrq: create redis store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("solrq: redis not ready: %w", err)
		}
		store = s
	}

	return wireClient(cfg, sc, store, obs, logger), nil
}

func wireClient(cfg *clientConfig, sc *solrhttp.Client, store db.Store, obs *observer, logger *zap.Logger) *Client {
	p := parser.New(logger)

	// Nil interface, not a typed nil pointer, when checkpointing is off.
	var checkpoints exportuc.CheckpointStore
	if store != nil {
		checkpoints = checkpointrepo.New(store, cfg.keyPrefix, cfg.checkpointTTL)
	}

	searchSvc := searchuc.New(p, sc).WithMaxRows(cfg.maxRows)
	exportSvc := exportuc.New(
		solrhttp.NewFetcher[json.RawMessage](sc, p),
		p,
		checkpoints,
		exportuc.Config{Core: cfg.core, UniqueKey: cfg.uniqueKey, BatchSize: cfg.batchSize, Every: cfg.every},
		logger,
	).WithObserver(obs)

	return &Client{
		solr:      sc,
		parser:    p,
		search:    searchSvc,
		export:    exportSvc,
		store:     store,
		obs:       obs,
		core:      cfg.core,
		logger:    logger,
		hasResume: checkpoints != nil,
	}
}

// Close releases the Redis connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks that the core answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.solr.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Compile returns the request parameters q compiles to without sending them.
func (c *Client) Compile(q *Query) (*Params, error) {
	start := time.Now()
	p, err := c.search.Compile(q)
	c.obs.observe("compile", start, err)
	return p, err //nolint:wrapcheck // already wrapped by the search service
}

// Search executes q and returns one page of raw documents with facet pages.
func (c *Client) Search(ctx context.Context, q *Query) (*SearchResult, error) {
	start := time.Now()
	res, err := c.search.Search(ctx, q)
	c.obs.observe("search", start, err)
	return res, err //nolint:wrapcheck // already wrapped by the search service
}

// Export streams every document matching req.Query to emit. With WithRedis
// progress is checkpointed and a failed export can be continued by passing
// the returned ID as req.ResumeID.
func (c *Client) Export(ctx context.Context, req ExportRequest, emit func(json.RawMessage) error) (ExportProgress, error) {
	start := time.Now()
	job, err := c.export.Prepare(ctx, req)
	if err != nil {
		c.obs.observe("export", start, err)
		return ExportProgress{}, err //nolint:wrapcheck // already wrapped by the export service
	}
	progress, err := job.Run(ctx, emit)
	c.obs.observe("export", start, err)
	return progress, err //nolint:wrapcheck // already wrapped by the export service
}

// CanResume reports whether exports are checkpointed.
func (c *Client) CanResume() bool { return c.hasResume }

// Documents decodes the raw documents of a search result into T.
func Documents[T any](r *SearchResult) ([]T, error) {
	if r == nil {
		return nil, nil
	}
	return solr.Documents[T](&solr.Response{Response: solr.DocumentList{Docs: r.Documents}})
}

// NewCursor creates a READY cursor over q that decodes documents into T.
// q must sort on the core's unique key; the engine rejects cursors otherwise.
// The page size of q is the batch size. Its page number is ignored: cursors
// always start at offset 0 and q itself is left unchanged.
func NewCursor[T any](c *Client, q *Query, opts ...CursorOption) (*Cursor[T], error) {
	if c == nil {
		return nil, fmt.Errorf("client must not be nil: %w", ErrInvalidArgument)
	}
	if q != nil {
		if pg := q.Page(); pg != nil && pg.Number() > 0 {
			first, err := NewPage(0, pg.Size())
			if err != nil {
				return nil, err
			}
			q = q.Clone()
			q.SetPage(first)
		}
	}
	all := append([]CursorOption{
		cursor.WithLogger(c.logger),
		cursor.WithObserver(c.obs),
	}, opts...)
	return cursor.New[T](q, solrhttp.NewFetcher[T](c.solr, c.parser), all...)
}

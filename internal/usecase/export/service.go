// Package export streams a full result set through a cursor and checkpoints
// its progress so an interrupted export can resume.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/cursor"
	"github.com/kailas-cloud/solrq/internal/domain"
	cp "github.com/kailas-cloud/solrq/internal/domain/checkpoint"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
	logpkg "github.com/kailas-cloud/solrq/internal/logger"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// Request describes an export.
type Request struct {
	Query     *query.Query
	ResumeID  string // continue a checkpointed export
	BatchSize int    // documents per page; 0 uses the service default
}

// Progress reports how far an export got.
type Progress struct {
	ID         string
	Exported   int64
	CursorMark string
	Finished   bool
	Resumed    bool
}

// Service prepares and runs exports.
type Service struct {
	fetcher     Fetcher
	compiler    Compiler
	checkpoints CheckpointStore
	core        string
	uniqueKey   string
	batchSize   int
	every       int64
	observer    cursor.Observer
	newID       func() string
	logger      *zap.Logger
}

// Config holds the service settings.
type Config struct {
	Core      string
	UniqueKey string // appended as the sort tie-breaker, default "id"
	BatchSize int    // default page size, default 100
	Every     int    // checkpoint at the first page boundary after this many documents, default 1000
}

// New creates an export service. checkpoints may be nil, which disables resuming.
func New(f Fetcher, c Compiler, checkpoints CheckpointStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.UniqueKey == "" {
		cfg.UniqueKey = "id"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Every <= 0 {
		cfg.Every = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:     f,
		compiler:    c,
		checkpoints: checkpoints,
		core:        cfg.Core,
		uniqueKey:   cfg.UniqueKey,
		batchSize:   cfg.BatchSize,
		every:       int64(cfg.Every),
		newID:       uuid.NewString,
		logger:      logger,
	}
}

// WithObserver reports every cursor fetch to obs.
func (s *Service) WithObserver(obs cursor.Observer) *Service {
	s.observer = obs
	return s
}

// Job is a prepared export. Run it once.
type Job struct {
	svc         *Service
	id          string
	fingerprint string
	query       *query.Query
	start       cp.Checkpoint
	resumed     bool
}

// ID returns the export id, which is also the checkpoint id.
func (j *Job) ID() string { return j.id }

// Resumed reports whether the job continues a checkpoint.
func (j *Job) Resumed() bool { return j.resumed }

// Prepare validates the request and resolves the checkpoint to resume from.
// Nothing is fetched yet.
func (s *Service) Prepare(ctx context.Context, req Request) (*Job, error) {
	if req.Query == nil || req.Query.Criteria() == nil {
		return nil, fmt.Errorf("export needs a query with criteria: %w", domain.ErrInvalidArgument)
	}
	size := req.BatchSize
	if size <= 0 {
		size = s.batchSize
	}
	pg, err := page.New(0, size)
	if err != nil {
		return nil, fmt.Errorf("batch size: %w", err)
	}

	q := req.Query.Clone()
	q.SetPage(pg)
	q.SetCursorMark("")
	if err := s.ensureTieBreaker(q); err != nil {
		return nil, err
	}

	p, err := s.compiler.ConstructSolrQuery(q)
	if err != nil {
		return nil, fmt.Errorf("compile export query: %w", err)
	}
	job := &Job{
		svc:         s,
		fingerprint: cp.Fingerprint(p.Encode()),
		query:       q,
	}

	if req.ResumeID == "" {
		job.id = s.newID()
		job.start = cp.Checkpoint{
			ID: job.id, Core: s.core, Fingerprint: job.fingerprint, CursorMark: params.CursorMarkStart,
		}
		return job, nil
	}

	if s.checkpoints == nil {
		return nil, fmt.Errorf("cannot resume export %s, checkpointing is disabled: %w",
			req.ResumeID, domain.ErrAPIUsage)
	}
	saved, err := s.checkpoints.Get(ctx, req.ResumeID)
	if err != nil {
		return nil, fmt.Errorf("resume export: %w", err)
	}
	if !saved.Matches(s.core, job.fingerprint) {
		return nil, fmt.Errorf("checkpoint %s was taken for a different request, resend the original query: %w",
			req.ResumeID, domain.ErrInvalidArgument)
	}
	job.id = saved.ID
	job.start = saved
	job.resumed = true
	return job, nil
}

// ensureTieBreaker appends the unique key to the sort. Cursors need a total order.
func (s *Service) ensureTieBreaker(q *query.Query) error {
	for _, sf := range q.Sort() {
		if sf.Field.Name() == s.uniqueKey {
			return nil
		}
	}
	if err := q.AddSort(s.uniqueKey, query.Asc); err != nil {
		return fmt.Errorf("unique key sort: %w", err)
	}
	return nil
}

// Run streams every remaining document to emit. Progress is checkpointed at
// page boundaries, and once more when the cursor closes, so a failed run can
// be resumed with the job id.
func (j *Job) Run(ctx context.Context, emit func(doc json.RawMessage) error) (Progress, error) {
	s := j.svc
	logger := logpkg.FromContextOr(ctx, s.logger).With(zap.String("export_id", j.id), zap.String("core", s.core))

	// safe is the last page boundary; resuming from it loses nothing.
	safe := j.start
	saved := true
	if safe.Finished {
		return j.progress(safe), nil
	}

	save := func(c context.Context) error {
		if s.checkpoints == nil || saved {
			return nil
		}
		if err := s.checkpoints.Save(c, safe); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		saved = true
		return nil
	}

	opts := []cursor.Option{
		cursor.WithStartMark(safe.CursorMark),
		cursor.WithLogger(logger),
		cursor.WithCloseHook(func() error { return save(context.WithoutCancel(ctx)) }),
	}
	if s.observer != nil {
		opts = append(opts, cursor.WithObserver(s.observer))
	}
	cur, err := cursor.New[json.RawMessage](j.query, s.fetcher, opts...)
	if err != nil {
		return j.progress(safe), err
	}

	runErr := j.drain(ctx, cur, emit, &safe, &saved, save)
	if closeErr := cur.Close(); closeErr != nil {
		logger.Warn("Export checkpoint not saved on close", zap.Error(closeErr))
		runErr = errors.Join(runErr, closeErr)
	}
	if runErr != nil {
		logger.Warn("Export interrupted",
			zap.Int64("exported", safe.Exported),
			zap.String("cursor_mark", safe.CursorMark),
			zap.Error(runErr),
		)
		return j.progress(safe), runErr
	}
	logger.Info("Export finished", zap.Int64("exported", safe.Exported))
	return j.progress(safe), nil
}

func (j *Job) drain(
	ctx context.Context, cur *cursor.Cursor[json.RawMessage], emit func(json.RawMessage) error,
	safe *cp.Checkpoint, saved *bool, save func(context.Context) error,
) error {
	if err := cur.Open(ctx); err != nil {
		return fmt.Errorf("open cursor: %w", err)
	}

	exported := safe.Exported
	sinceSave := int64(0)
	for {
		ok, err := cur.HasNext(ctx)
		if err != nil {
			return fmt.Errorf("fetch page: %w", err)
		}
		if !ok {
			break
		}
		doc, err := cur.Next(ctx)
		if err != nil {
			return fmt.Errorf("next document: %w", err)
		}
		if err := emit(doc); err != nil {
			return fmt.Errorf("emit document: %w", err)
		}
		exported++
		sinceSave++

		if cur.Buffered() == 0 {
			safe.CursorMark = cur.CursorMark()
			safe.Exported = exported
			*saved = false
			if sinceSave >= j.svc.every {
				if err := save(ctx); err != nil {
					return err
				}
				sinceSave = 0
			}
		}
	}

	safe.CursorMark = cur.CursorMark()
	safe.Exported = exported
	safe.Finished = true
	*saved = false
	return save(ctx)
}

func (j *Job) progress(c cp.Checkpoint) Progress {
	return Progress{
		ID:         j.id,
		Exported:   c.Exported,
		CursorMark: c.CursorMark,
		Finished:   c.Finished,
		Resumed:    j.resumed,
	}
}

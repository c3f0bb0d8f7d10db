package cursor

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// State is the lifecycle state of a Cursor.
type State int

// Cursor states.
const (
	Ready State = iota
	Open
	Finished
	Closed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Open:
		return "OPEN"
	case Finished:
		return "FINISHED"
	case Closed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PartialResult is one page returned for a cursor mark.
type PartialResult[T any] struct {
	NextCursorMark string
	Items          []T
}

// Fetcher executes q, which carries the cursor mark to fetch from.
// A nil result with a nil error ends the stream.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q *query.Query) (*PartialResult[T], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, q *query.Query) (*PartialResult[T], error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, q *query.Query) (*PartialResult[T], error) {
	return f(ctx, q)
}

// Observer is notified after every fetch attempt.
type Observer interface {
	ObserveFetch(mark string, items int, duration time.Duration, err error)
}

// Cursor lazily iterates a result set page by page using cursor marks.
// It is not safe for concurrent use.
type Cursor[T any] struct {
	state     State
	mark      string
	position  int64
	ref       *query.Query
	buffer    []T
	next      int
	fetcher   Fetcher[T]
	closeHook func() error
	observer  Observer
	logger    *zap.Logger
}

// Option configures a Cursor.
type Option func(*options)

type options struct {
	startMark string
	closeHook func() error
	observer  Observer
	logger    *zap.Logger
}

// WithStartMark starts fetching from mark instead of the start of the stream.
func WithStartMark(mark string) Option {
	return func(o *options) {
		if mark != "" {
			o.startMark = mark
		}
	}
}

// WithCloseHook runs fn on Close before the cursor state is cleared.
func WithCloseHook(fn func() error) Option {
	return func(o *options) { o.closeHook = fn }
}

// WithObserver reports every fetch to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a cursor in the READY state over ref.
func New[T any](ref *query.Query, fetcher Fetcher[T], opts ...Option) (*Cursor[T], error) {
	if ref == nil {
		return nil, fmt.Errorf("reference query must not be nil: %w", domain.ErrInvalidArgument)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher must not be nil: %w", domain.ErrInvalidArgument)
	}
	o := options{startMark: params.CursorMarkStart, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cursor[T]{
		state:     Ready,
		mark:      o.startMark,
		ref:       ref,
		fetcher:   fetcher,
		closeHook: o.closeHook,
		observer:  o.observer,
		logger:    o.logger,
	}, nil
}

// Open performs the first fetch and moves the cursor to OPEN.
// Only a READY cursor can be opened. A failed first fetch leaves it READY.
func (c *Cursor[T]) Open(ctx context.Context) error {
	if c.state != Ready {
		return fmt.Errorf("cursor already %s, cannot (re)open it: %w", c.state, domain.ErrInvalidState)
	}
	finished, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.state = Open
	if finished {
		c.state = Finished
	}
	return nil
}

// HasNext reports whether another item is available, fetching the next
// page when the buffer is exhausted and the stream is not finished.
func (c *Cursor[T]) HasNext(ctx context.Context) (bool, error) {
	if err := c.validateState(); err != nil {
		return false, err
	}
	if c.next < len(c.buffer) {
		return true, nil
	}
	if c.state == Finished {
		return false, nil
	}
	finished, err := c.fetch(ctx)
	if err != nil {
		return false, err
	}
	if finished {
		c.state = Finished
	}
	return c.next < len(c.buffer), nil
}

// Next returns the next item and advances the position.
func (c *Cursor[T]) Next(ctx context.Context) (T, error) {
	var zero T
	ok, err := c.HasNext(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("no more elements available for cursor %s: %w", c.mark, domain.ErrNoSuchElement)
	}
	item := c.buffer[c.next]
	c.next++
	c.position++
	return item, nil
}

// Remove is not supported.
func (c *Cursor[T]) Remove() error {
	return fmt.Errorf("cursor does not support remove: %w", domain.ErrUnsupported)
}

// Close releases the buffer and reference query and moves to CLOSED.
// The close hook error is returned, but the cursor is closed regardless.
// Closing a closed cursor does nothing.
func (c *Cursor[T]) Close() error {
	if c.state == Closed {
		return nil
	}
	var hookErr error
	if c.closeHook != nil {
		hookErr = c.runCloseHook()
	}
	c.ref = nil
	c.buffer = nil
	c.next = 0
	c.position = -1
	c.state = Closed
	if hookErr != nil {
		return fmt.Errorf("close cursor: %w", hookErr)
	}
	return nil
}

// runCloseHook turns a panicking hook into an error so Close always completes.
func (c *Cursor[T]) runCloseHook() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("close hook panicked: %v", r)
		}
	}()
	return c.closeHook()
}

// All returns an iterator over the remaining items. Iteration stops at the
// first error, which is yielded with a zero item.
func (c *Cursor[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			ok, err := c.HasNext(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			item, err := c.Next(ctx)
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// State returns the current state.
func (c *Cursor[T]) State() State { return c.state }

// IsOpen reports whether the cursor is OPEN.
func (c *Cursor[T]) IsOpen() bool { return c.state == Open }

// IsFinished reports whether the server has no more data.
func (c *Cursor[T]) IsFinished() bool { return c.state == Finished }

// IsClosed reports whether the cursor is CLOSED.
func (c *Cursor[T]) IsClosed() bool { return c.state == Closed }

// Position returns the number of items returned by Next, or -1 once closed.
func (c *Cursor[T]) Position() int64 { return c.position }

// Buffered returns how many fetched items Next has not returned yet. When it
// is zero, CursorMark is a safe point to resume from.
func (c *Cursor[T]) Buffered() int { return len(c.buffer) - c.next }

// CursorMark returns the mark the next fetch will use.
func (c *Cursor[T]) CursorMark() string { return c.mark }

// Query returns the reference query, or nil once closed.
func (c *Cursor[T]) Query() *query.Query { return c.ref }

func (c *Cursor[T]) validateState() error {
	if c.state == Ready || c.state == Closed {
		return fmt.Errorf("cannot access %s cursor, did you forget to call open()?: %w",
			c.state, domain.ErrInvalidState)
	}
	return nil
}

// fetch loads the page for the current mark. State and mark are only
// changed when the fetcher succeeds. It reports whether the stream ended.
func (c *Cursor[T]) fetch(ctx context.Context) (bool, error) {
	q := c.ref.Clone()
	q.SetCursorMark(c.mark)

	start := time.Now()
	res, err := c.fetcher.Fetch(ctx, q)
	dur := time.Since(start)

	items := 0
	if res != nil {
		items = len(res.Items)
	}
	if c.observer != nil {
		c.observer.ObserveFetch(c.mark, items, dur, err)
	}
	if err != nil {
		c.logger.Warn("Cursor fetch failed",
			zap.String("cursor_mark", c.mark),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return false, err
	}

	if res == nil {
		c.logger.Debug("Cursor fetch returned no result", zap.String("cursor_mark", c.mark))
		c.buffer = nil
		c.next = 0
		return true, nil
	}

	finished := res.NextCursorMark == c.mark
	c.logger.Debug("Cursor page fetched",
		zap.String("cursor_mark", c.mark),
		zap.String("next_cursor_mark", res.NextCursorMark),
		zap.Int("items", items),
		zap.Bool("finished", finished),
		zap.Duration("duration", dur),
	)
	c.mark = res.NextCursorMark
	c.buffer = res.Items
	c.next = 0
	return finished, nil
}

package cursor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/criteria"
)

// --- Mocks ---

type step struct {
	res *PartialResult[string]
	err error
}

type mockFetcher struct {
	steps []step
	marks []string
	calls int
}

func (m *mockFetcher) Fetch(_ context.Context, q *query.Query) (*PartialResult[string], error) {
	m.marks = append(m.marks, q.CursorMark())
	if m.calls >= len(m.steps) {
		return nil, nil
	}
	s := m.steps[m.calls]
	m.calls++
	return s.res, s.err
}

func page(mark string, items ...string) step {
	return step{res: &PartialResult[string]{NextCursorMark: mark, Items: items}}
}

type recordingObserver struct {
	marks []string
	items []int
	errs  int
}

func (r *recordingObserver) ObserveFetch(mark string, items int, _ time.Duration, err error) {
	r.marks = append(r.marks, mark)
	r.items = append(r.items, items)
	if err != nil {
		r.errs++
	}
}

func refQuery(t *testing.T) *query.Query {
	t.Helper()
	q, err := query.NewWithCriteria(criteria.Where("field_1").Is("value_1"))
	if err != nil {
		t.Fatalf("NewWithCriteria: %v", err)
	}
	return q
}

func newCursor(t *testing.T, f Fetcher[string], opts ...Option) *Cursor[string] {
	t.Helper()
	c, err := New[string](refQuery(t), f, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func drain(t *testing.T, c *Cursor[string]) []string {
	t.Helper()
	ctx := context.Background()
	var out []string
	for {
		ok, err := c.HasNext(ctx)
		if err != nil {
			t.Fatalf("HasNext: %v", err)
		}
		if !ok {
			return out
		}
		item, err := c.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, item)
	}
}

// --- Tests ---

func TestNew_Invalid(t *testing.T) {
	if _, err := New[string](nil, &mockFetcher{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("nil query error = %v", err)
	}
	if _, err := New[string](refQuery(t), nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("nil fetcher error = %v", err)
	}
}

func TestCursor_IteratesAcrossPages(t *testing.T) {
	f := &mockFetcher{steps: []step{
		page("foo", "spring", "data"),
		page("foo", "solr"),
	}}
	c := newCursor(t, f)
	if c.State() != Ready {
		t.Fatalf("state = %s, want READY", c.State())
	}

	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !c.IsOpen() {
		t.Fatalf("state = %s, want OPEN", c.State())
	}

	got := drain(t, c)
	want := []string{"spring", "data", "solr"}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}

	if !c.IsFinished() {
		t.Errorf("state = %s, want FINISHED", c.State())
	}
	if c.Position() != 3 {
		t.Errorf("position = %d, want 3", c.Position())
	}
	if len(f.marks) != 2 || f.marks[0] != "*" || f.marks[1] != "foo" {
		t.Errorf("fetch marks = %v, want [* foo]", f.marks)
	}
}

func TestCursor_FinishedOnlyAfterStableMark(t *testing.T) {
	f := &mockFetcher{steps: []step{
		page("foo", "spring", "data"),
		page("foo", "solr"),
	}}
	c := newCursor(t, f)
	ctx := context.Background()
	_ = c.Open(ctx)

	for i := 0; i < 2; i++ {
		if _, err := c.Next(ctx); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if c.IsFinished() {
			t.Fatalf("finished too early after item %d", i)
		}
	}

	// Buffer exhausted: the next HasNext fetches the repeated mark.
	ok, err := c.HasNext(ctx)
	if err != nil || !ok {
		t.Fatalf("HasNext = %v, %v", ok, err)
	}
	if !c.IsFinished() {
		t.Error("expected FINISHED after the mark repeated")
	}
	item, err := c.Next(ctx)
	if err != nil || item != "solr" {
		t.Fatalf("Next = %q, %v", item, err)
	}
	if ok, _ := c.HasNext(ctx); ok {
		t.Error("expected no more items")
	}
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestCursor_NextAfterExhaustion(t *testing.T) {
	f := &mockFetcher{steps: []step{page("*", "only")}}
	c := newCursor(t, f)
	ctx := context.Background()
	_ = c.Open(ctx)

	if !c.IsFinished() {
		t.Fatal("stable mark on first fetch must finish the stream")
	}
	if _, err := c.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	_, err := c.Next(ctx)
	if !errors.Is(err, domain.ErrNoSuchElement) {
		t.Errorf("error = %v, want ErrNoSuchElement", err)
	}
}

func TestCursor_NilResultFinishes(t *testing.T) {
	f := &mockFetcher{steps: []step{page("a", "x")}}
	c := newCursor(t, f)
	_ = c.Open(context.Background())

	got := drain(t, c)
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("items = %v", got)
	}
	if !c.IsFinished() {
		t.Errorf("state = %s, want FINISHED", c.State())
	}
	if c.CursorMark() != "a" {
		t.Errorf("mark = %q, nil result must not change it", c.CursorMark())
	}
}

func TestCursor_EmptyPageAdoptsMark(t *testing.T) {
	f := &mockFetcher{steps: []step{
		page("a"),
		page("b", "x"),
		page("b"),
	}}
	c := newCursor(t, f)
	_ = c.Open(context.Background())
	if c.CursorMark() != "a" {
		t.Errorf("mark = %q, want a", c.CursorMark())
	}

	// An empty page with a new mark does not end iteration.
	got := drain(t, c)
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("items = %v, want [x]", got)
	}
	if c.CursorMark() != "b" || f.calls != 3 || !c.IsFinished() {
		t.Errorf("mark = %q, calls = %d, state = %s", c.CursorMark(), f.calls, c.State())
	}
}

func TestCursor_OpenTwice(t *testing.T) {
	c := newCursor(t, &mockFetcher{steps: []step{page("a", "x")}})
	ctx := context.Background()
	if err := c.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Open(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second Open error = %v, want ErrInvalidState", err)
	}
}

func TestCursor_AccessBeforeOpen(t *testing.T) {
	c := newCursor(t, &mockFetcher{})
	ctx := context.Background()

	_, err := c.HasNext(ctx)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("HasNext error = %v, want ErrInvalidState", err)
	}
	if _, err := c.Next(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Next error = %v, want ErrInvalidState", err)
	}
}

func TestCursor_Close(t *testing.T) {
	hookCalls := 0
	c := newCursor(t, &mockFetcher{steps: []step{page("a", "x", "y")}},
		WithCloseHook(func() error { hookCalls++; return nil }),
	)
	ctx := context.Background()
	_ = c.Open(ctx)
	_, _ = c.Next(ctx)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.IsClosed() || c.Position() != -1 || c.Query() != nil {
		t.Errorf("state = %s, position = %d, query = %v", c.State(), c.Position(), c.Query())
	}
	if _, err := c.HasNext(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("HasNext after close error = %v", err)
	}
	if err := c.Open(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Open after close error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if hookCalls != 1 || !c.IsClosed() {
		t.Errorf("hook calls = %d, state = %s", hookCalls, c.State())
	}
}

func TestCursor_CloseHookFailure(t *testing.T) {
	hookErr := errors.New("release failed")
	c := newCursor(t, &mockFetcher{steps: []step{page("a", "x")}},
		WithCloseHook(func() error { return hookErr }),
	)
	_ = c.Open(context.Background())

	err := c.Close()
	if !errors.Is(err, hookErr) {
		t.Errorf("Close error = %v, want hook error", err)
	}
	if !c.IsClosed() || c.Position() != -1 || c.Query() != nil {
		t.Error("cursor must be cleared even when the hook fails")
	}
}

func TestCursor_CloseHookPanic(t *testing.T) {
	c := newCursor(t, &mockFetcher{}, WithCloseHook(func() error { panic("boom") }))
	if err := c.Close(); err == nil {
		t.Fatal("expected error from panicking hook")
	}
	if !c.IsClosed() {
		t.Error("cursor must be closed")
	}
}

func TestCursor_CloseFromReady(t *testing.T) {
	c := newCursor(t, &mockFetcher{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.IsClosed() {
		t.Error("expected CLOSED")
	}
}

func TestCursor_FetchErrorKeepsState(t *testing.T) {
	boom := errors.New("transport down")
	f := &mockFetcher{steps: []step{
		page("a", "x"),
		{err: boom},
		page("b", "y"),
		page("b"),
	}}
	c := newCursor(t, f)
	ctx := context.Background()
	_ = c.Open(ctx)
	_, _ = c.Next(ctx)

	_, err := c.HasNext(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want transport error unchanged", err)
	}
	if c.CursorMark() != "a" || !c.IsOpen() || c.Position() != 1 {
		t.Errorf("mark = %q, state = %s, position = %d", c.CursorMark(), c.State(), c.Position())
	}

	// Retrying reuses the last successful mark.
	got := drain(t, c)
	if len(got) != 1 || got[0] != "y" {
		t.Errorf("items after retry = %v", got)
	}
	if f.marks[1] != "a" || f.marks[2] != "a" {
		t.Errorf("marks = %v, failed fetch must be retried with the same mark", f.marks)
	}
}

func TestCursor_OpenFailureStaysReady(t *testing.T) {
	boom := errors.New("transport down")
	f := &mockFetcher{steps: []step{{err: boom}, page("a", "x")}}
	c := newCursor(t, f)
	ctx := context.Background()

	if err := c.Open(ctx); !errors.Is(err, boom) {
		t.Fatalf("Open error = %v", err)
	}
	if c.State() != Ready || c.CursorMark() != "*" {
		t.Errorf("state = %s, mark = %q", c.State(), c.CursorMark())
	}
	if err := c.Open(ctx); err != nil {
		t.Fatalf("retry Open: %v", err)
	}
	if !c.IsOpen() {
		t.Errorf("state = %s, want OPEN", c.State())
	}
}

func TestCursor_ReferenceQueryUntouched(t *testing.T) {
	f := &mockFetcher{steps: []step{page("a", "x"), page("a")}}
	c := newCursor(t, f)
	ref := c.Query()
	_ = c.Open(context.Background())
	drain(t, c)

	if ref.CursorMark() != "" {
		t.Errorf("reference query mark = %q, fetches must use a copy", ref.CursorMark())
	}
}

func TestCursor_Remove(t *testing.T) {
	c := newCursor(t, &mockFetcher{})
	if err := c.Remove(); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("Remove error = %v, want ErrUnsupported", err)
	}
}

func TestCursor_StartMarkAndObserver(t *testing.T) {
	obs := &recordingObserver{}
	f := &mockFetcher{steps: []step{page("c", "x"), {err: errors.New("fail")}}}
	c := newCursor(t, f, WithStartMark("b"), WithObserver(obs))
	ctx := context.Background()
	_ = c.Open(ctx)
	_, _ = c.Next(ctx)
	_, _ = c.HasNext(ctx)

	if f.marks[0] != "b" {
		t.Errorf("first mark = %q, want b", f.marks[0])
	}
	if len(obs.marks) != 2 || obs.items[0] != 1 || obs.errs != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestCursor_All(t *testing.T) {
	f := &mockFetcher{steps: []step{page("a", "x", "y"), page("a", "z")}}
	c := newCursor(t, f)
	ctx := context.Background()
	_ = c.Open(ctx)

	var got []string
	for item, err := range c.All(ctx) {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		got = append(got, item)
	}
	if len(got) != 3 || got[2] != "z" {
		t.Errorf("items = %v", got)
	}
}

func TestCursor_AllYieldsError(t *testing.T) {
	c := newCursor(t, &mockFetcher{})
	var errs int
	for _, err := range c.All(context.Background()) {
		if errors.Is(err, domain.ErrInvalidState) {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("errors = %d, want 1", errs)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{Ready: "READY", Open: "OPEN", Finished: "FINISHED", Closed: "CLOSED", State(9): "State(9)"}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}

func TestCursor_Buffered(t *testing.T) {
	f := &mockFetcher{steps: []step{page("a", "x", "y"), page("a")}}
	c := newCursor(t, f)
	ctx := context.Background()
	if c.Buffered() != 0 {
		t.Fatalf("buffered before open = %d", c.Buffered())
	}
	_ = c.Open(ctx)
	if c.Buffered() != 2 {
		t.Errorf("buffered = %d, want 2", c.Buffered())
	}
	_, _ = c.Next(ctx)
	_, _ = c.Next(ctx)
	if c.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0", c.Buffered())
	}
	_ = c.Close()
	if c.Buffered() != 0 {
		t.Errorf("buffered after close = %d", c.Buffered())
	}
}

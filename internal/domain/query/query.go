package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query/criteria"
	"github.com/kailas-cloud/solrq/internal/domain/query/facet"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
)

// Direction is a sort direction.
type Direction string

// Direction constants.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortField orders results by a field.
type SortField struct {
	Field     field.Field
	Direction Direction
}

// Query is the request model compiled into wire parameters.
type Query struct {
	criteria      *criteria.Criteria
	projection    []field.Field
	groupBy       []field.Field
	filterQueries []*Query
	facetOptions  *facet.Options
	page          *page.Page
	sort          []SortField
	cursorMark    string
	handler       string
}

// New creates an empty query with the default page (0, 10).
func New() *Query {
	p := page.Default()
	return &Query{page: &p}
}

// NewWithCriteria creates a query rooted at c.
func NewWithCriteria(c *criteria.Criteria) (*Query, error) {
	q := New()
	if err := q.AddCriteria(c); err != nil {
		return nil, err
	}
	return q, nil
}

// AddCriteria sets the root criteria, or ANDs c onto the existing root.
func (q *Query) AddCriteria(c *criteria.Criteria) error {
	if c == nil {
		return fmt.Errorf("criteria must not be nil: %w", domain.ErrInvalidArgument)
	}
	if err := c.Err(); err != nil {
		return fmt.Errorf("add criteria: %w", err)
	}
	if q.criteria == nil {
		q.criteria = c.Root()
		return nil
	}
	q.criteria.Join(c.Root())
	return nil
}

// AddProjection appends fields to return in the response.
func (q *Query) AddProjection(names ...string) error {
	fs, err := field.Names(names...)
	if err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	q.projection = append(q.projection, fs...)
	return nil
}

// AddGroupBy appends fields to group results on.
func (q *Query) AddGroupBy(names ...string) error {
	fs, err := field.Names(names...)
	if err != nil {
		return fmt.Errorf("group by: %w", err)
	}
	q.groupBy = append(q.groupBy, fs...)
	return nil
}

// AddFilterQuery appends a filter query. It must carry criteria.
func (q *Query) AddFilterQuery(fq *Query) error {
	if fq == nil || fq.criteria == nil {
		return fmt.Errorf("filter query must have criteria: %w", domain.ErrInvalidArgument)
	}
	q.filterQueries = append(q.filterQueries, fq)
	return nil
}

// SetFacetOptions configures faceting. Options need at least one field.
func (q *Query) SetFacetOptions(o facet.Options) error {
	if !o.HasFields() {
		return fmt.Errorf("facet options need at least one field: %w", domain.ErrInvalidArgument)
	}
	q.facetOptions = &o
	return nil
}

// SetPage sets the result page.
func (q *Query) SetPage(p page.Page) { q.page = &p }

// ClearPage removes pagination so the engine defaults apply.
func (q *Query) ClearPage() { q.page = nil }

// AddSort appends a sort field.
func (q *Query) AddSort(name string, dir Direction) error {
	f, err := field.New(name)
	if err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	if dir != Asc && dir != Desc {
		return fmt.Errorf("invalid sort direction %q: %w", dir, domain.ErrInvalidArgument)
	}
	q.sort = append(q.sort, SortField{Field: f, Direction: dir})
	return nil
}

// SetCursorMark sets the cursor mark sent with the request. Empty clears it.
func (q *Query) SetCursorMark(mark string) { q.cursorMark = mark }

// SetRequestHandler sets the handler path the request is sent to, for
// example "/export". Empty means the default select handler.
func (q *Query) SetRequestHandler(path string) error {
	if path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("request handler %q must start with /: %w", path, domain.ErrInvalidArgument)
	}
	q.handler = path
	return nil
}

// RequestHandler returns the handler path, or "".
func (q *Query) RequestHandler() string { return q.handler }

// Criteria returns the root criteria, or nil.
func (q *Query) Criteria() *criteria.Criteria { return q.criteria }

// Projection returns the projection fields.
func (q *Query) Projection() []field.Field { return clone(q.projection) }

// GroupBy returns the group-by fields.
func (q *Query) GroupBy() []field.Field { return clone(q.groupBy) }

// FilterQueries returns the filter queries.
func (q *Query) FilterQueries() []*Query { return clone(q.filterQueries) }

// FacetOptions returns the facet options, or nil.
func (q *Query) FacetOptions() *facet.Options { return q.facetOptions }

// Page returns the page, or nil when pagination is not requested.
func (q *Query) Page() *page.Page { return q.page }

// Sort returns the sort fields.
func (q *Query) Sort() []SortField { return clone(q.sort) }

// CursorMark returns the cursor mark, or "".
func (q *Query) CursorMark() string { return q.cursorMark }

// Clone deep-copies the query. The criteria chain is copied so the clone
// can be extended independently.
func (q *Query) Clone() *Query {
	out := &Query{
		projection: clone(q.projection),
		groupBy:    clone(q.groupBy),
		sort:       clone(q.sort),
		cursorMark: q.cursorMark,
		handler:    q.handler,
	}
	if q.criteria != nil {
		out.criteria = q.criteria.Copy()
	}
	if q.facetOptions != nil {
		o := *q.facetOptions
		out.facetOptions = &o
	}
	if q.page != nil {
		p := *q.page
		out.page = &p
	}
	if len(q.filterQueries) > 0 {
		out.filterQueries = make([]*Query, len(q.filterQueries))
		for i, fq := range q.filterQueries {
			out.filterQueries[i] = fq.Clone()
		}
	}
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

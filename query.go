package solrq

import (
	"github.com/kailas-cloud/solrq/internal/cursor"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/criteria"
	"github.com/kailas-cloud/solrq/internal/domain/query/facet"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

type (
	// Field is a validated field name.
	Field = field.Field
	// Criteria is one node of a boolean criteria chain.
	Criteria = criteria.Criteria
	// Query is the request model: criteria plus projection, grouping,
	// faceting, filter queries, paging and sort.
	Query = query.Query
	// Direction is a sort direction.
	Direction = query.Direction
	// FacetOptions configures field faceting.
	FacetOptions = facet.Options
	// FacetSort orders facet buckets.
	FacetSort = facet.Sort
	// Page is a zero-based page of a given size.
	Page = page.Page
	// Params are compiled request parameters.
	Params = params.Params
)

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// Facet bucket orders.
const (
	FacetSortCount = facet.SortCount
	FacetSortIndex = facet.SortIndex
)

// CursorMarkStart is the mark that starts a cursor at the first document.
const CursorMarkStart = params.CursorMarkStart

// Where starts a criteria chain on the named field.
func Where(name string) *Criteria { return criteria.Where(name) }

// NewField validates a field name.
func NewField(name string) (Field, error) { return field.New(name) }

// NewQuery creates a query rooted at c with the default page (0, 10).
func NewQuery(c *Criteria) (*Query, error) { return query.NewWithCriteria(c) }

// NewFacetOptions creates facet options for the named fields.
func NewFacetOptions(fields ...string) (FacetOptions, error) { return facet.New(fields...) }

// NewPage creates a page. number must be >= 0 and size >= 1.
func NewPage(number, size int) (Page, error) { return page.New(number, size) }

type (
	// Cursor iterates a result set page by page using cursor marks.
	Cursor[T any] = cursor.Cursor[T]
	// CursorState is the lifecycle state of a Cursor.
	CursorState = cursor.State
	// CursorOption configures a Cursor.
	CursorOption = cursor.Option
)

// Cursor states.
const (
	CursorReady    = cursor.Ready
	CursorOpen     = cursor.Open
	CursorFinished = cursor.Finished
	CursorClosed   = cursor.Closed
)

// WithStartMark starts a cursor from a previously returned mark.
func WithStartMark(mark string) CursorOption { return cursor.WithStartMark(mark) }

// WithCloseHook runs fn when the cursor is closed.
func WithCloseHook(fn func() error) CursorOption { return cursor.WithCloseHook(fn) }

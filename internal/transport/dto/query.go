// Package dto holds the JSON request and response shapes shared by the HTTP
// server and the CLI.
package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/criteria"
	"github.com/kailas-cloud/solrq/internal/domain/query/facet"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
)

// Clause is one node of a criteria chain. Op joins it to the previous clause
// and is ignored on the first one.
type Clause struct {
	Field      string   `json:"field"`
	Op         string   `json:"op,omitempty"` // "and" (default) or "or"
	Is         []any    `json:"is,omitempty"`
	Contains   []string `json:"contains,omitempty"`
	StartsWith []string `json:"starts_with,omitempty"`
	EndsWith   []string `json:"ends_with,omitempty"`
	Expression []string `json:"expression,omitempty"`
}

// Facet configures field faceting.
type Facet struct {
	Fields   []string `json:"fields"`
	MinCount *int     `json:"min_count,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Page     int      `json:"page,omitempty"`
}

// Page selects a result page.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

// Sort orders results.
type Sort struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"` // "asc" (default) or "desc"
}

// Query is the JSON form of a search request.
type Query struct {
	Criteria      []Clause   `json:"criteria"`
	FilterQueries [][]Clause `json:"filter_queries,omitempty"`
	Fields        []string   `json:"fields,omitempty"`
	GroupBy       []string   `json:"group_by,omitempty"`
	Facet         *Facet     `json:"facet,omitempty"`
	Page          *Page      `json:"page,omitempty"`
	NoPage        bool       `json:"no_page,omitempty"`
	Sort          []Sort     `json:"sort,omitempty"`
	Handler       string     `json:"handler,omitempty"`
}

// DecodeQuery reads a Query, keeping numbers exact and rejecting unknown fields.
func DecodeQuery(r io.Reader) (Query, error) {
	var q Query
	if err := decodeStrict(r, &q); err != nil {
		return Query{}, err
	}
	return q, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %v: %w", err, domain.ErrInvalidArgument)
	}
	if dec.More() {
		return fmt.Errorf("request body has trailing data: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// ToDomain builds the request model.
func (d Query) ToDomain() (*query.Query, error) {
	c, err := BuildCriteria(d.Criteria)
	if err != nil {
		return nil, err
	}
	q, err := query.NewWithCriteria(c)
	if err != nil {
		return nil, err
	}

	for i, clauses := range d.FilterQueries {
		fc, err := BuildCriteria(clauses)
		if err != nil {
			return nil, fmt.Errorf("filter query %d: %w", i, err)
		}
		fq, err := query.NewWithCriteria(fc)
		if err != nil {
			return nil, fmt.Errorf("filter query %d: %w", i, err)
		}
		if err := q.AddFilterQuery(fq); err != nil {
			return nil, err
		}
	}
	if len(d.Fields) > 0 {
		if err := q.AddProjection(d.Fields...); err != nil {
			return nil, err
		}
	}
	if len(d.GroupBy) > 0 {
		if err := q.AddGroupBy(d.GroupBy...); err != nil {
			return nil, err
		}
	}
	if d.Facet != nil {
		opts, err := d.Facet.toDomain()
		if err != nil {
			return nil, err
		}
		if err := q.SetFacetOptions(opts); err != nil {
			return nil, err
		}
	}
	switch {
	case d.NoPage:
		q.ClearPage()
	case d.Page != nil:
		p, err := page.New(d.Page.Number, d.Page.Size)
		if err != nil {
			return nil, err
		}
		q.SetPage(p)
	}
	for _, s := range d.Sort {
		dir := query.Direction(strings.ToLower(s.Direction))
		if dir == "" {
			dir = query.Asc
		}
		if err := q.AddSort(s.Field, dir); err != nil {
			return nil, err
		}
	}
	if err := q.SetRequestHandler(d.Handler); err != nil {
		return nil, err
	}
	return q, nil
}

// BuildCriteria turns clauses into a criteria chain and returns its root.
func BuildCriteria(clauses []Clause) (*criteria.Criteria, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("at least one criteria clause is required: %w", domain.ErrInvalidArgument)
	}
	var cur *criteria.Criteria
	for i, cl := range clauses {
		switch {
		case i == 0:
			cur = criteria.Where(cl.Field)
		case cl.Op == "" || strings.EqualFold(cl.Op, "and"):
			cur = cur.And(cl.Field)
		case strings.EqualFold(cl.Op, "or"):
			cur = cur.Or(cl.Field)
		default:
			return nil, fmt.Errorf("clause %d: unknown op %q, use and or or: %w", i, cl.Op, domain.ErrInvalidArgument)
		}
		for _, v := range cl.Is {
			cur.Is(v)
		}
		for _, v := range cl.Contains {
			cur.Contains(v)
		}
		for _, v := range cl.StartsWith {
			cur.StartsWith(v)
		}
		for _, v := range cl.EndsWith {
			cur.EndsWith(v)
		}
		for _, v := range cl.Expression {
			cur.Expression(v)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return cur.Root(), nil
}

func (f Facet) toDomain() (facet.Options, error) {
	opts, err := facet.New(f.Fields...)
	if err != nil {
		return facet.Options{}, err
	}
	if f.MinCount != nil {
		if opts, err = opts.WithMinCount(*f.MinCount); err != nil {
			return facet.Options{}, err
		}
	}
	if f.Limit != nil {
		if opts, err = opts.WithLimit(*f.Limit); err != nil {
			return facet.Options{}, err
		}
	}
	if f.Page > 0 {
		p, err := page.New(f.Page, opts.Limit())
		if err != nil {
			return facet.Options{}, err
		}
		opts = opts.WithPage(p)
	}
	if f.Sort != "" {
		if opts, err = opts.WithSort(facet.Sort(strings.ToLower(f.Sort))); err != nil {
			return facet.Options{}, err
		}
	}
	return opts, nil
}

// ExportRequest is the body of an export.
type ExportRequest struct {
	Query     Query  `json:"query"`
	ResumeID  string `json:"resume_id,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
}

// DecodeExport reads an ExportRequest.
func DecodeExport(r io.Reader) (ExportRequest, error) {
	var req ExportRequest
	if err := decodeStrict(r, &req); err != nil {
		return ExportRequest{}, err
	}
	return req, nil
}

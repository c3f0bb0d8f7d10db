package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/solr/params"
	"github.com/kailas-cloud/solrq/internal/solr/result"
)

// Result is one page of documents with its facets.
type Result struct {
	NumFound       int64
	Start          int64
	MaxScore       float64
	QTime          int
	Documents      []json.RawMessage
	Facets         map[field.Field]result.FacetPage
	NextCursorMark string
}

// Service compiles and executes queries.
type Service struct {
	compiler Compiler
	selector Selector
	maxRows  int
}

// New creates a search service.
func New(c Compiler, s Selector) *Service {
	return &Service{compiler: c, selector: s}
}

// WithMaxRows rejects pages larger than n. Zero disables the check.
func (s *Service) WithMaxRows(n int) *Service {
	s.maxRows = n
	return s
}

// Compile validates q and returns its wire parameters without sending them.
func (s *Service) Compile(q *query.Query) (*params.Params, error) {
	if err := s.checkPage(q); err != nil {
		return nil, err
	}
	p, err := s.compiler.ConstructSolrQuery(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	return p, nil
}

// Search compiles q, executes it and maps the facet counts to pages.
func (s *Service) Search(ctx context.Context, q *query.Query) (*Result, error) {
	p, err := s.Compile(q)
	if err != nil {
		return nil, err
	}
	resp, err := s.selector.Select(ctx, q.RequestHandler(), p)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	facets, err := result.FacetPages(resp, q)
	if err != nil {
		return nil, fmt.Errorf("facet pages: %w: %w", domain.ErrUpstream, err)
	}
	return &Result{
		NumFound:       resp.Response.NumFound,
		Start:          resp.Response.Start,
		MaxScore:       resp.Response.MaxScore,
		QTime:          resp.ResponseHeader.QTime,
		Documents:      resp.Response.Docs,
		Facets:         facets,
		NextCursorMark: resp.NextCursorMark,
	}, nil
}

func (s *Service) checkPage(q *query.Query) error {
	if q == nil {
		return fmt.Errorf("query must not be nil: %w", domain.ErrInvalidArgument)
	}
	if s.maxRows > 0 && q.Page() != nil && q.Page().Size() > s.maxRows {
		return fmt.Errorf("page size %d exceeds the maximum of %d: %w",
			q.Page().Size(), s.maxRows, domain.ErrInvalidArgument)
	}
	return nil
}

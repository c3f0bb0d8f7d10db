package solrhttp

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/solrq/internal/cursor"
	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/solr"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// Selector executes compiled parameters. *Client implements it.
type Selector interface {
	Select(ctx context.Context, handler string, p *params.Params) (*solr.Response, error)
}

// Compiler turns a query into wire parameters. *parser.Parser implements it.
type Compiler interface {
	ConstructSolrQuery(q *query.Query) (*params.Params, error)
}

// NewFetcher returns a cursor.Fetcher that compiles each page request and
// decodes the documents into T.
func NewFetcher[T any](s Selector, c Compiler) cursor.Fetcher[T] {
	return cursor.FetcherFunc[T](func(ctx context.Context, q *query.Query) (*cursor.PartialResult[T], error) {
		p, err := c.ConstructSolrQuery(q)
		if err != nil {
			return nil, err
		}
		resp, err := s.Select(ctx, q.RequestHandler(), p)
		if err != nil {
			return nil, err
		}
		if resp.NextCursorMark == "" {
			return nil, fmt.Errorf("response carries no nextCursorMark, cursor requests need a sort on the unique key: %w",
				domain.ErrAPIUsage)
		}
		docs, err := solr.Documents[T](resp)
		if err != nil {
			return nil, err
		}
		return &cursor.PartialResult[T]{NextCursorMark: resp.NextCursorMark, Items: docs}, nil
	})
}

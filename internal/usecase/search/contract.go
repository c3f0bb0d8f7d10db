package search

import (
	"context"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/solr"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// Compiler turns a query into wire parameters.
type Compiler interface {
	ConstructSolrQuery(q *query.Query) (*params.Params, error)
}

// Selector executes compiled parameters against the engine.
type Selector interface {
	Select(ctx context.Context, handler string, p *params.Params) (*solr.Response, error)
}

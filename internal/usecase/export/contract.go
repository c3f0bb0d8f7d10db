package export

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/solrq/internal/cursor"
	cp "github.com/kailas-cloud/solrq/internal/domain/checkpoint"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// Fetcher loads one cursor page of raw documents.
type Fetcher = cursor.Fetcher[json.RawMessage]

// Compiler turns a query into wire parameters. Used to fingerprint requests.
type Compiler interface {
	ConstructSolrQuery(q *query.Query) (*params.Params, error)
}

// CheckpointStore persists export progress.
type CheckpointStore interface {
	Save(ctx context.Context, c cp.Checkpoint) error
	Get(ctx context.Context, id string) (cp.Checkpoint, error)
}

package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/facet"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// Parser compiles a query.Query into wire parameters. It keeps no state
// between calls and is safe for concurrent use on independent queries.
type Parser struct {
	logger *zap.Logger
}

// New creates a Parser. A nil logger disables debug output.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ConstructSolrQuery compiles q. On error no parameters are returned.
func (p *Parser) ConstructSolrQuery(q *query.Query) (*params.Params, error) {
	if q == nil {
		return nil, fmt.Errorf("query must not be nil: %w", domain.ErrInvalidArgument)
	}
	if q.Criteria() == nil {
		return nil, fmt.Errorf("query must have criteria: %w", domain.ErrInvalidArgument)
	}

	qs, err := q.Criteria().CreateQueryString()
	if err != nil {
		return nil, fmt.Errorf("compile criteria: %w", err)
	}

	out := params.New()
	out.Set(params.Query, qs)

	if err := appendGrouping(out, q.GroupBy()); err != nil {
		return nil, err
	}
	if err := appendFilterQueries(out, q.FilterQueries()); err != nil {
		return nil, err
	}
	appendPagination(out, q)
	appendProjection(out, q.Projection())
	appendFaceting(out, q.FacetOptions())
	appendSort(out, q.Sort())
	if mark := q.CursorMark(); mark != "" {
		out.Set(params.CursorMark, mark)
	}

	p.logger.Debug("Compiled query",
		zap.String("q", qs),
		zap.String("params", out.Encode()),
	)
	return out, nil
}

func appendPagination(out *params.Params, q *query.Query) {
	pg := q.Page()
	if pg == nil {
		return
	}
	out.SetInt(params.Start, pg.Offset())
	out.SetInt(params.Rows, pg.Size())
}

func appendProjection(out *params.Params, fields []field.Field) {
	if len(fields) == 0 {
		return
	}
	out.Set(params.FieldList, field.Join(fields, ","))
}

func appendFaceting(out *params.Params, opts *facet.Options) {
	if opts == nil || !opts.HasFields() {
		return
	}
	out.SetBool(params.Facet, true)
	out.Set(params.FacetField, field.Join(opts.Fields(), ","))
	out.SetInt(params.FacetMinCount, opts.MinCount())
	out.SetInt(params.FacetLimit, opts.Page().Size())
	if opts.Page().Number() > 0 {
		out.SetInt(params.FacetOffset, opts.Page().Offset())
	}
	if opts.Sort() == facet.SortIndex {
		out.Set(params.FacetSort, string(facet.SortIndex))
	}
}

// appendGrouping adds result grouping. Only one group field is accepted:
// the upstream client cannot express more, so the restriction is kept as-is.
func appendGrouping(out *params.Params, fields []field.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) > 1 {
		return fmt.Errorf(
			"cannot group on more than one field, got %d (%s); group on a single field: %w",
			len(fields), field.Join(fields, ","), domain.ErrAPIUsage,
		)
	}
	out.SetBool(params.Group, true)
	out.SetBool(params.GroupMain, true)
	out.Set(params.GroupField, fields[0].Name())
	return nil
}

func appendFilterQueries(out *params.Params, fqs []*query.Query) error {
	for i, fq := range fqs {
		qs, err := fq.Criteria().CreateQueryString()
		if err != nil {
			return fmt.Errorf("compile filter query %d: %w", i, err)
		}
		out.Add(params.Filter, qs)
	}
	return nil
}

func appendSort(out *params.Params, sorts []query.SortField) {
	if len(sorts) == 0 {
		return
	}
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		parts[i] = s.Field.Name() + " " + string(s.Direction)
	}
	out.Set(params.Sort, strings.Join(parts, ","))
}

package result

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
	"github.com/kailas-cloud/solrq/internal/solr"
)

// FacetEntry is a single facet value with its document count.
type FacetEntry struct {
	Field field.Field
	Value string
	Count int64
}

// FacetPage is one page of facet values for a field.
type FacetPage struct {
	Field   field.Field
	Entries []FacetEntry
	Page    page.Page
}

// FacetPages maps the raw facet_fields of resp to a page per field.
// It returns an empty map when q has no facet options or resp has no facets.
func FacetPages(resp *solr.Response, q *query.Query) (map[field.Field]FacetPage, error) {
	out := make(map[field.Field]FacetPage)
	if resp == nil || resp.FacetCounts == nil || q == nil || q.FacetOptions() == nil {
		return out, nil
	}
	pg := q.FacetOptions().Page()
	for name, flat := range resp.FacetCounts.FacetFields {
		f, err := field.New(name)
		if err != nil {
			return nil, fmt.Errorf("facet field: %w", err)
		}
		entries, err := parseFlat(f, flat)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		out[f] = FacetPage{Field: f, Entries: entries, Page: pg}
	}
	return out, nil
}

// parseFlat reads the [value, count, value, count, ...] layout.
func parseFlat(f field.Field, flat []any) ([]FacetEntry, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("odd facet list length %d", len(flat))
	}
	entries := make([]FacetEntry, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		count, err := toCount(flat[i+1])
		if err != nil {
			return nil, fmt.Errorf("count at %d: %w", i+1, err)
		}
		entries = append(entries, FacetEntry{
			Field: f,
			Value: fmt.Sprint(flat[i]),
			Count: count,
		})
	}
	return entries, nil
}

func toCount(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integer count %v", x)
		}
		return int64(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("parse count: %w", err)
		}
		return n, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse count: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}

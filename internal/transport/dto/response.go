package dto

import (
	"encoding/json"
	"sort"

	"github.com/kailas-cloud/solrq/internal/solr/params"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// CompileResponse carries compiled wire parameters.
type CompileResponse struct {
	Params      map[string][]string `json:"params"`
	QueryString string              `json:"query_string"`
}

// NewCompileResponse renders p.
func NewCompileResponse(p *params.Params) CompileResponse {
	return CompileResponse{Params: p.Map(), QueryString: p.Encode()}
}

// FacetValue is one facet bucket.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FacetPage is the page of buckets for one field.
type FacetPage struct {
	Field  string       `json:"field"`
	Page   int          `json:"page"`
	Size   int          `json:"size"`
	Values []FacetValue `json:"values"`
}

// SearchResponse is one page of results.
type SearchResponse struct {
	NumFound       int64             `json:"num_found"`
	Start          int64             `json:"start"`
	MaxScore       float64           `json:"max_score,omitempty"`
	QTimeMS        int               `json:"qtime_ms"`
	Documents      []json.RawMessage `json:"documents"`
	Facets         []FacetPage       `json:"facets,omitempty"`
	NextCursorMark string            `json:"next_cursor_mark,omitempty"`
}

// NewSearchResponse maps a search result. Facets are sorted by field name.
func NewSearchResponse(r *searchuc.Result) SearchResponse {
	docs := r.Documents
	if docs == nil {
		docs = []json.RawMessage{}
	}
	out := SearchResponse{
		NumFound:       r.NumFound,
		Start:          r.Start,
		MaxScore:       r.MaxScore,
		QTimeMS:        r.QTime,
		Documents:      docs,
		NextCursorMark: r.NextCursorMark,
	}
	for f, fp := range r.Facets {
		values := make([]FacetValue, len(fp.Entries))
		for i, e := range fp.Entries {
			values[i] = FacetValue{Value: e.Value, Count: e.Count}
		}
		out.Facets = append(out.Facets, FacetPage{
			Field:  f.Name(),
			Page:   fp.Page.Number(),
			Size:   fp.Page.Size(),
			Values: values,
		})
	}
	sort.Slice(out.Facets, func(i, j int) bool { return out.Facets[i].Field < out.Facets[j].Field })
	return out
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package solr

import (
	"encoding/json"
	"fmt"
)

// ResponseHeader is the engine's per-request header.
type ResponseHeader struct {
	Status int `json:"status"`
	QTime  int `json:"QTime"`
}

// DocumentList is the main result list.
type DocumentList struct {
	NumFound int64             `json:"numFound"`
	Start    int64             `json:"start"`
	MaxScore float64           `json:"maxScore,omitempty"`
	Docs     []json.RawMessage `json:"docs"`
}

// FacetCounts holds field facets in the engine's flat [value, count, ...] layout.
type FacetCounts struct {
	FacetFields map[string][]any `json:"facet_fields"`
}

// ErrorBody is the error object returned with non-2xx responses.
type ErrorBody struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}

// Response is a decoded select response.
type Response struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Response       DocumentList   `json:"response"`
	FacetCounts    *FacetCounts   `json:"facet_counts,omitempty"`
	NextCursorMark string         `json:"nextCursorMark,omitempty"`
	Error          *ErrorBody     `json:"error,omitempty"`
}

// Error is an engine-reported failure.
type Error struct {
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("solr: status %d: %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("solr: status %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Documents decodes the returned documents into T.
func Documents[T any](resp *Response) ([]T, error) {
	if resp == nil {
		return nil, nil
	}
	out := make([]T, 0, len(resp.Response.Docs))
	for i, raw := range resp.Response.Docs {
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document %d: %w", i, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

package facet

import (
	"fmt"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
)

// Defaults for facet options.
const (
	DefaultMinCount = 1
	DefaultLimit    = 10
)

// Sort is the ordering of facet values.
type Sort string

// Sort constants. Count is the engine default.
const (
	SortCount Sort = "count"
	SortIndex Sort = "index"
)

// IsValid reports whether s is a known sort.
func (s Sort) IsValid() bool { return s == SortCount || s == SortIndex }

// Options configures field faceting on a query.
type Options struct {
	fields   []field.Field
	minCount int
	limit    int
	sort     Sort
	page     page.Page
}

// New validates field names and creates Options with defaults.
func New(names ...string) (Options, error) {
	fields := make([]field.Field, 0, len(names))
	for _, n := range names {
		f, err := field.New(n)
		if err != nil {
			return Options{}, fmt.Errorf("facet field: %w", err)
		}
		fields = append(fields, f)
	}
	return NewForFields(fields...)
}

// NewForFields creates Options from already constructed fields.
func NewForFields(fields ...field.Field) (Options, error) {
	for _, f := range fields {
		if f.IsZero() {
			return Options{}, fmt.Errorf("facet field must not be empty: %w", domain.ErrInvalidArgument)
		}
	}
	out := make([]field.Field, len(fields))
	copy(out, fields)
	p, _ := page.New(0, DefaultLimit)
	return Options{
		fields:   out,
		minCount: DefaultMinCount,
		limit:    DefaultLimit,
		sort:     SortCount,
		page:     p,
	}, nil
}

// AddField returns a copy with f appended.
func (o Options) AddField(name string) (Options, error) {
	f, err := field.New(name)
	if err != nil {
		return Options{}, fmt.Errorf("facet field: %w", err)
	}
	fields := make([]field.Field, len(o.fields), len(o.fields)+1)
	copy(fields, o.fields)
	o.fields = append(fields, f)
	return o, nil
}

// WithMinCount returns a copy with the minimum count set. Must be >= 0.
func (o Options) WithMinCount(n int) (Options, error) {
	if n < 0 {
		return Options{}, fmt.Errorf("facet min count must not be negative, got %d: %w", n, domain.ErrInvalidArgument)
	}
	o.minCount = n
	return o, nil
}

// WithLimit returns a copy with the value limit set. Must be >= 1.
// The limit becomes the facet page size.
func (o Options) WithLimit(n int) (Options, error) {
	if n < 1 {
		return Options{}, fmt.Errorf("facet limit must be at least 1, got %d: %w", n, domain.ErrInvalidArgument)
	}
	p, err := page.New(o.page.Number(), n)
	if err != nil {
		return Options{}, err
	}
	o.limit = n
	o.page = p
	return o, nil
}

// WithSort returns a copy with the sort set.
func (o Options) WithSort(s Sort) (Options, error) {
	if !s.IsValid() {
		return Options{}, fmt.Errorf("invalid facet sort %q: %w", s, domain.ErrInvalidArgument)
	}
	o.sort = s
	return o, nil
}

// WithPage returns a copy paging through facet values. The page size becomes the limit.
func (o Options) WithPage(p page.Page) Options {
	o.page = p
	o.limit = p.Size()
	return o
}

// Fields returns the facet fields in order.
func (o Options) Fields() []field.Field {
	out := make([]field.Field, len(o.fields))
	copy(out, o.fields)
	return out
}

// HasFields reports whether at least one field is configured.
func (o Options) HasFields() bool { return len(o.fields) > 0 }

// MinCount returns the minimum count for a facet value to be returned.
func (o Options) MinCount() int { return o.minCount }

// Limit returns the maximum number of values per field.
func (o Options) Limit() int { return o.limit }

// Sort returns the facet value ordering.
func (o Options) Sort() Sort { return o.sort }

// Page returns the facet page.
func (o Options) Page() page.Page { return o.page }

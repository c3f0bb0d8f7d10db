package params

import (
	"net/url"
	"sort"
	"strconv"
)

// Wire parameter names understood by the engine's select handler.
const (
	Query      = "q"
	Start      = "start"
	Rows       = "rows"
	FieldList  = "fl"
	Filter     = "fq"
	Sort       = "sort"
	CursorMark = "cursorMark"
	Writer     = "wt"

	Facet         = "facet"
	FacetField    = "facet.field"
	FacetMinCount = "facet.mincount"
	FacetLimit    = "facet.limit"
	FacetOffset   = "facet.offset"
	FacetSort     = "facet.sort"

	Group      = "group"
	GroupMain  = "group.main"
	GroupField = "group.field"
)

// CursorMarkStart is the reserved start-of-stream cursor mark.
const CursorMarkStart = "*"

// Params is a multi-valued set of wire parameters.
type Params struct {
	values url.Values
}

// New returns an empty parameter set.
func New() *Params {
	return &Params{values: url.Values{}}
}

// FromValues copies v into a new parameter set.
func FromValues(v url.Values) *Params {
	p := New()
	for k, vs := range v {
		p.values[k] = append([]string(nil), vs...)
	}
	return p
}

// Set replaces the values of key.
func (p *Params) Set(key, value string) { p.values.Set(key, value) }

// SetInt replaces the values of key with an integer.
func (p *Params) SetInt(key string, value int) { p.values.Set(key, strconv.Itoa(value)) }

// SetBool replaces the values of key with a boolean.
func (p *Params) SetBool(key string, value bool) { p.values.Set(key, strconv.FormatBool(value)) }

// Add appends a value to key.
func (p *Params) Add(key, value string) { p.values.Add(key, value) }

// Del removes key.
func (p *Params) Del(key string) { p.values.Del(key) }

// Get returns the first value of key, or "".
func (p *Params) Get(key string) string { return p.values.Get(key) }

// Values returns all values of key.
func (p *Params) Values(key string) []string {
	return append([]string(nil), p.values[key]...)
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool { return p.values.Has(key) }

// Keys returns the parameter names in sorted order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct parameter names.
func (p *Params) Len() int { return len(p.values) }

// Encode renders the parameters as a URL query string sorted by key.
func (p *Params) Encode() string { return p.values.Encode() }

// Clone deep-copies the parameter set.
func (p *Params) Clone() *Params {
	return FromValues(p.values)
}

// Map flattens the parameters, keeping every value.
func (p *Params) Map() map[string][]string {
	out := make(map[string][]string, len(p.values))
	for k, vs := range p.values {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

package criteria

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind is the predicate kind of an Entry.
type Kind string

// Predicate kinds.
const (
	KindEquals     Kind = "equals"
	KindContains   Kind = "contains"
	KindStartsWith Kind = "startsWith"
	KindEndsWith   Kind = "endsWith"
	KindExpression Kind = "expression"
)

// solrDateLayout is the ISO-8601 UTC form the engine accepts for date fields.
const solrDateLayout = "2006-01-02T15:04:05.999Z"

// Entry is a single immutable predicate on a criteria node.
type Entry struct {
	kind  Kind
	value any
	text  string
}

func newEntry(kind Kind, value any) Entry {
	return Entry{kind: kind, value: value, text: valueString(value)}
}

// Kind returns the predicate kind.
func (e Entry) Kind() Kind { return e.kind }

// Value returns the predicate value as supplied.
func (e Entry) Value() any { return e.value }

// sameAs reports whether o is the same (kind, value) pair. Values that
// cannot be compared fall back to their rendered text.
func (e Entry) sameAs(o Entry) bool {
	if e.kind != o.kind {
		return false
	}
	if reflect.ValueOf(e.value).Comparable() && reflect.ValueOf(o.value).Comparable() {
		return e.value == o.value
	}
	return e.text == o.text
}

// isNil reports an untyped nil or a nil pointer, map, slice, func, chan or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(solrDateLayout)
	case fmt.Stringer:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

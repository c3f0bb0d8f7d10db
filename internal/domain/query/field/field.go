package field

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// Field is an immutable reference to a document attribute.
type Field struct {
	name string
}

// New validates and creates a Field. Name must be non-blank.
func New(name string) (Field, error) {
	if strings.TrimSpace(name) == "" {
		return Field{}, fmt.Errorf("field name must not be empty: %w", domain.ErrInvalidArgument)
	}
	return Field{name: name}, nil
}

// MustNew calls New and panics on error.
func MustNew(name string) Field {
	f, err := New(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Names validates every name and returns the resulting fields in order.
func Names(names ...string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f, err := New(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// IsZero reports whether f was never initialized.
func (f Field) IsZero() bool { return f.name == "" }

func (f Field) String() string { return f.name }

// Join renders field names separated by sep.
func Join(fields []Field, sep string) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return strings.Join(names, sep)
}

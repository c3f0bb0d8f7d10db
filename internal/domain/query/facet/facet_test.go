package facet

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
	"github.com/kailas-cloud/solrq/internal/domain/query/page"
)

func TestNew_Defaults(t *testing.T) {
	o, err := New("category", "brand")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.HasFields() || len(o.Fields()) != 2 {
		t.Fatalf("fields = %v", o.Fields())
	}
	if o.MinCount() != 1 {
		t.Errorf("min count = %d, want 1", o.MinCount())
	}
	if o.Limit() != 10 || o.Page().Size() != 10 {
		t.Errorf("limit = %d, page size = %d, want 10", o.Limit(), o.Page().Size())
	}
	if o.Sort() != SortCount {
		t.Errorf("sort = %q, want count", o.Sort())
	}
	if o.Page().Number() != 0 {
		t.Errorf("page number = %d, want 0", o.Page().Number())
	}
}

func TestNew_BlankField(t *testing.T) {
	if _, err := New("category", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewForFields(field.Field{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestNew_NoFields(t *testing.T) {
	o, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.HasFields() {
		t.Error("expected no fields")
	}
}

func TestWithers(t *testing.T) {
	o, _ := New("category")

	o2, err := o.WithMinCount(0)
	if err != nil || o2.MinCount() != 0 {
		t.Errorf("WithMinCount(0) = %d, %v", o2.MinCount(), err)
	}
	if _, err := o.WithMinCount(-1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("WithMinCount(-1) error = %v", err)
	}

	o3, err := o.WithLimit(25)
	if err != nil || o3.Limit() != 25 || o3.Page().Size() != 25 {
		t.Errorf("WithLimit(25) = %d/%d, %v", o3.Limit(), o3.Page().Size(), err)
	}
	if _, err := o.WithLimit(0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("WithLimit(0) error = %v", err)
	}

	o4, err := o.WithSort(SortIndex)
	if err != nil || o4.Sort() != SortIndex {
		t.Errorf("WithSort = %q, %v", o4.Sort(), err)
	}
	if _, err := o.WithSort("alpha"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("WithSort(alpha) error = %v", err)
	}

	p, _ := page.New(2, 5)
	o5 := o.WithPage(p)
	if o5.Limit() != 5 || o5.Page().Offset() != 10 {
		t.Errorf("WithPage limit = %d offset = %d", o5.Limit(), o5.Page().Offset())
	}

	// The original is untouched.
	if o.Limit() != 10 || o.Sort() != SortCount || o.MinCount() != 1 {
		t.Error("withers must not mutate the receiver")
	}
}

func TestAddField(t *testing.T) {
	o, _ := New("a")
	o2, err := o.AddField("b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Fields()) != 1 || len(o2.Fields()) != 2 {
		t.Errorf("fields = %d / %d", len(o.Fields()), len(o2.Fields()))
	}
	if _, err := o.AddField(" "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

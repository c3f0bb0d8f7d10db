package field

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/solrq/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	f, err := New("title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name() != "title" {
		t.Errorf("name = %q, want title", f.Name())
	}
	if f.IsZero() {
		t.Error("expected non-zero field")
	}
}

func TestNew_Blank(t *testing.T) {
	for _, name := range []string{"", " ", "\t"} {
		_, err := New(name)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("New(%q) error = %v, want ErrInvalidArgument", name, err)
		}
	}
}

func TestField_Identity(t *testing.T) {
	if MustNew("a") != MustNew("a") {
		t.Error("fields with same name must be equal")
	}
	if MustNew("a") == MustNew("b") {
		t.Error("fields with different names must differ")
	}
}

func TestNames(t *testing.T) {
	fs, err := Names("a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Join(fs, ","); got != "a,b" {
		t.Errorf("Join = %q, want a,b", got)
	}

	if _, err := Names("a", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNew("")
}

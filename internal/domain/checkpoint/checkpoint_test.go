package checkpoint

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/solrq/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cp      Checkpoint
		wantErr bool
	}{
		{"valid", Checkpoint{ID: "a", CursorMark: "*"}, false},
		{"missing id", Checkpoint{CursorMark: "*"}, true},
		{"missing mark", Checkpoint{ID: "a"}, true},
		{"negative count", Checkpoint{ID: "a", CursorMark: "*", Exported: -1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cp.Validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("q=a%3A1&sort=id+asc")
	if a != Fingerprint("q=a%3A1&sort=id+asc") {
		t.Error("fingerprint must be deterministic")
	}
	if a == Fingerprint("q=a%3A2&sort=id+asc") {
		t.Error("different requests must differ")
	}
	if len(a) != 32 {
		t.Errorf("len = %d, want 32", len(a))
	}

	cp := Checkpoint{Core: "books", Fingerprint: a}
	if !cp.Matches("books", a) || cp.Matches("films", a) || cp.Matches("books", "x") {
		t.Error("Matches must compare core and fingerprint")
	}
}

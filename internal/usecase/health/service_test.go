package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name       string
		solr       error
		checkpoint Pinger
		want       Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			checkpoint: &mockPinger{},
			want:       Healthy,
			wantChecks: map[string]CheckResult{"solr": CheckOK, "checkpoint": CheckOK},
		},
		{
			name:       "no checkpoint store",
			want:       Healthy,
			wantChecks: map[string]CheckResult{"solr": CheckOK},
		},
		{
			name:       "checkpoint down",
			checkpoint: &mockPinger{err: down},
			want:       Degraded,
			wantChecks: map[string]CheckResult{"solr": CheckOK, "checkpoint": CheckError},
		},
		{
			name:       "solr down",
			solr:       down,
			checkpoint: &mockPinger{err: down},
			want:       Unhealthy,
			wantChecks: map[string]CheckResult{"solr": CheckError, "checkpoint": CheckError},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&mockPinger{err: tc.solr}, tc.checkpoint).Check(context.Background())
			if r.Status != tc.want {
				t.Errorf("status = %q, want %q", r.Status, tc.want)
			}
			if len(r.Checks) != len(tc.wantChecks) {
				t.Fatalf("checks = %v", r.Checks)
			}
			for k, v := range tc.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("%s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}

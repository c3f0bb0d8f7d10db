package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the checkpoint store is unavailable; searches still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unavailable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	solr       Pinger
	checkpoint Pinger
}

// New creates a Service. checkpoint can be nil when checkpointing is off.
func New(solr, checkpoint Pinger) *Service {
	return &Service{solr: solr, checkpoint: checkpoint}
}

// Check pings every configured dependency.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"solr": probe(ctx, s.solr)}
	if s.checkpoint != nil {
		checks["checkpoint"] = probe(ctx, s.checkpoint)
	}

	status := Healthy
	switch {
	case checks["solr"] == CheckError:
		status = Unhealthy
	case checks["checkpoint"] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

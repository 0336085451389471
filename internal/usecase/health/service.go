package health

import (
	"context"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckWarn indicates a degraded component.
	CheckWarn CheckResult = "warn"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckEngine  = "engine"
	CheckCluster = "cluster"
	CheckBreaker = "breaker"
)

// Report aggregates health check results.
type Report struct {
	Status        Status
	Checks        map[string]CheckResult
	ClusterName   string
	ClusterStatus string
}

// Service coordinates health checks.
type Service struct {
	engine  EnginePinger
	cluster ClusterReporter
	breaker BreakerReporter
}

// New creates a Service. cluster and breaker can be nil.
func New(engine EnginePinger, cluster ClusterReporter, breaker BreakerReporter) *Service {
	return &Service{engine: engine, cluster: cluster, breaker: breaker}
}

// Check pings the engine and reads cluster health.
// An unreachable engine is Unhealthy. A yellow or red cluster, or an open breaker, is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult)}

	if err := s.engine.Ping(ctx); err != nil {
		r.Checks[CheckEngine] = CheckError
		r.Status = Unhealthy
		return r
	}
	r.Checks[CheckEngine] = CheckOK

	if s.cluster != nil {
		h, err := s.cluster.ClusterHealth(ctx)
		switch {
		case err != nil:
			r.Checks[CheckCluster] = CheckError
		case h.Status == "green":
			r.Checks[CheckCluster] = CheckOK
		default:
			r.Checks[CheckCluster] = CheckWarn
		}
		r.ClusterName = h.ClusterName
		r.ClusterStatus = h.Status
	}

	if s.breaker != nil {
		if s.breaker.IsOpen() {
			r.Checks[CheckBreaker] = CheckError
		} else {
			r.Checks[CheckBreaker] = CheckOK
		}
	}

	for _, v := range r.Checks {
		if v != CheckOK {
			r.Status = Degraded
			break
		}
	}
	return r
}

package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the index store is unreachable; searches cannot succeed.
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

// Component names in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentVideo     = "video"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// Items is the number of indexed catalog items, -1 when unknown.
	Items int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding Checker
	video     Checker
	items     ItemCounter
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding Checker) *Service {
	return &Service{db: db, embedding: embedding}
}

// WithVideo adds the video search check.
func (s *Service) WithVideo(video Checker) *Service {
	s.video = video
	return s
}

// WithItemCounter reports the indexed item count.
func (s *Service) WithItemCounter(items ItemCounter) *Service {
	s.items = items
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbOK := s.db.Ping(ctx) == nil
	checks[ComponentDatabase] = result(dbOK)

	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}
	if s.video != nil {
		checks[ComponentVideo] = result(s.video.HealthCheck(ctx) == nil)
	}

	items := -1
	if dbOK && s.items != nil {
		if n, err := s.items.Count(ctx); err == nil {
			items = n
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if !dbOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Items: items}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}

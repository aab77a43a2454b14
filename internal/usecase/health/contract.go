package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an optional dependency (embedding provider, video search).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// ItemCounter reports how many catalog items are indexed.
type ItemCounter interface {
	Count(ctx context.Context) (int, error)
}

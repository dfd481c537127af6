package health

import "context"

// Pinger checks passage store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks a collaborator's availability.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed resource.
//
// Start and Stop must be idempotent: starting an already-started component
// and stopping an already-stopped one are no-ops. Stop must not return
// before the underlying resource is fully released.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start constructs the underlying resource and attaches it.
	Start(ctx context.Context) error

	// Stop releases the underlying resource synchronously.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information for startup display.
type Description struct {
	// Name is the human-readable display name (e.g., "PostgreSQL").
	// If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "database", "scheduler", etc.
	Type string
	// Details is a human-readable one-liner, e.g. "partitions=3 pool=6/21".
	Details string
}

// Describable is optionally implemented by Components to self-report
// what they are and how they're configured.
type Describable interface {
	Describe() Description
}

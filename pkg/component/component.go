package component

import "context"

// Component is a long-lived part of the daemon started and stopped by the
// Orchestrator.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

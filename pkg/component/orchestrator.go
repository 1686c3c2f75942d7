package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Orchestrator struct {
	components []Component
	started    int
	mu         sync.Mutex
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		components: make([]Component, 0),
	}
}

func (o *Orchestrator) Register(comp Component) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.components = append(o.components, comp)
}

// Start starts components in registration order. If one fails, the ones
// already started are stopped again in reverse order.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, comp := range o.components {
		if err := comp.Start(ctx); err != nil {
			startErr := fmt.Errorf("failed to start %s: %w", comp.Name(), err)
			o.started = i
			return errors.Join(startErr, o.stopLocked(ctx))
		}
	}
	o.started = len(o.components)
	return nil
}

// Stop stops started components in reverse order, continuing past failures.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopLocked(ctx)
}

func (o *Orchestrator) stopLocked(ctx context.Context) error {
	var errs []error
	for i := o.started - 1; i >= 0; i-- {
		comp := o.components[i]
		if err := comp.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", comp.Name(), err))
		}
	}
	o.started = 0
	return errors.Join(errs...)
}

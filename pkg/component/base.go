package component

import (
	"context"
	"errors"
	"sync"
)

var ErrNotRunning = errors.New("component not running")

// Base tracks a component's run context. Goroutines started with Go see
// that context and are waited for by StopContext.
type Base struct {
	name string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBase(name string) *Base {
	return &Base{name: name}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) StartContext(parentCtx context.Context) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx, b.cancel = context.WithCancel(parentCtx)
}

func (b *Base) StopContext() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
}

// Context returns the run context, or nil before StartContext.
func (b *Base) Context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

func (b *Base) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// Go runs fn with the run context. It returns ErrNotRunning outside
// StartContext/StopContext.
func (b *Base) Go(fn func(ctx context.Context)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		return ErrNotRunning
	}

	ctx := b.ctx
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(ctx)
	}()
	return nil
}

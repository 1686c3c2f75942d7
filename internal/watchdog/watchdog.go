package watchdog

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/radvsup/pkg/component"
	"github.com/veesix-networks/radvsup/pkg/logger"
)

type StateProvider interface {
	GetAllStates() []StateInfo
	IsReady() bool
}

type Watchdog struct {
	*component.Base
	logger  *slog.Logger
	runners map[string]*targetRunner
	started bool
	mu      sync.RWMutex
}

func New() *Watchdog {
	return &Watchdog{
		Base:    component.NewBase("watchdog"),
		logger:  logger.Get(logger.Watchdog),
		runners: make(map[string]*targetRunner),
	}
}

// Register adds target. Targets registered after Start begin checking
// immediately; an existing target of the same name is replaced.
func (w *Watchdog) Register(target Target, config RunnerConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := target.Name()
	if old, exists := w.runners[name]; exists {
		w.logger.Warn("target already registered, replacing", "target", name)
		old.stop()
	}

	runner := newTargetRunner(target, config, w.logger)
	w.runners[name] = runner
	w.logger.Info("registered target", "target", name, "critical", target.Critical(), "action", config.OnFailure)

	if w.started {
		runner.start(w.Context())
	}
}

// Unregister stops checking name. Unknown names are ignored.
func (w *Watchdog) Unregister(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runner, ok := w.runners[name]
	if !ok {
		return
	}
	delete(w.runners, name)
	runner.stop()
	w.logger.Info("unregistered target", "target", name)
}

func (w *Watchdog) Start(ctx context.Context) error {
	w.StartContext(ctx)
	w.logger.Info("starting watchdog")

	w.mu.Lock()
	defer w.mu.Unlock()

	w.started = true
	for _, runner := range w.runners {
		runner.start(w.Context())
	}

	return nil
}

func (w *Watchdog) Stop(ctx context.Context) error {
	w.logger.Info("stopping watchdog")

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, runner := range w.runners {
		runner.stop()
	}
	w.started = false

	w.StopContext()
	return nil
}

func (w *Watchdog) GetState(name string) (StateInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	runner, ok := w.runners[name]
	if !ok {
		return StateInfo{}, false
	}
	return runner.getStateInfo(), true
}

// GetAllStates returns target states sorted by name.
func (w *Watchdog) GetAllStates() []StateInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	states := make([]StateInfo, 0, len(w.runners))
	for _, runner := range w.runners {
		states = append(states, runner.getStateInfo())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

func (w *Watchdog) IsHealthy() bool {
	return true
}

func (w *Watchdog) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		if runner.target.Critical() && runner.state() != StateUp {
			return false
		}
	}
	return true
}

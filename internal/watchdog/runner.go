package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veesix-networks/radvsup/pkg/config/system"
)

type FailureAction string

const (
	ActionRestart FailureAction = "restart"
	ActionWarn    FailureAction = "warn"
)

type RunnerConfig struct {
	CheckInterval      time.Duration
	Timeout            time.Duration
	FailureThreshold   int
	OnFailure          FailureAction
	MinRestartInterval time.Duration
}

// RunnerConfigFrom maps the watchdog section of the daemon config.
func RunnerConfigFrom(cfg system.WatchdogConfig) RunnerConfig {
	return RunnerConfig{
		CheckInterval:      cfg.CheckInterval,
		Timeout:            cfg.Timeout,
		FailureThreshold:   cfg.FailureThreshold,
		OnFailure:          FailureAction(cfg.OnFailure),
		MinRestartInterval: cfg.MinRestartInterval,
	}
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	def := system.DefaultWatchdogConfig()
	if c.CheckInterval <= 0 {
		c.CheckInterval = def.CheckInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 1
	}
	return c
}

// targetStatus is the mutable record of one target. It is written by the
// check loop and read by GetAllStates.
type targetStatus struct {
	state           TargetState
	lastCheck       *HealthResult
	consecFailures  int64
	totalFailures   int64
	totalRestarts   int64
	lastStateChange time.Time
	upSince         time.Time
	lastRestart     time.Time
}

type targetRunner struct {
	target Target
	config RunnerConfig
	logger *slog.Logger

	mu     sync.Mutex
	status targetStatus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTargetRunner(target Target, config RunnerConfig, logger *slog.Logger) *targetRunner {
	return &targetRunner{
		target: target,
		config: config.withDefaults(),
		logger: logger.With("target", target.Name()),
		status: targetStatus{state: StateInit, lastStateChange: time.Now()},
	}
}

func (r *targetRunner) start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *targetRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *targetRunner) state() TargetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.state
}

func (r *targetRunner) getStateInfo() StateInfo {
	r.mu.Lock()
	st := r.status
	r.mu.Unlock()

	info := StateInfo{
		Name:            r.target.Name(),
		State:           st.state.String(),
		Critical:        r.target.Critical(),
		LastCheck:       st.lastCheck,
		ConsecFailures:  st.consecFailures,
		TotalFailures:   st.totalFailures,
		TotalRestarts:   st.totalRestarts,
		LastStateChange: st.lastStateChange,
	}
	if !st.upSince.IsZero() {
		info.Uptime = time.Since(st.upSince).Truncate(time.Second).String()
	}
	return info
}

func (r *targetRunner) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	r.doCheck(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.doCheck(ctx)
		}
	}
}

func (r *targetRunner) doCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	result := r.target.Check(checkCtx)
	cancel()

	if result.Healthy {
		r.recordSuccess(result)
		return
	}
	if r.recordFailure(result) {
		r.dispatchAction(ctx)
	}
}

func (r *targetRunner) recordSuccess(result *HealthResult) {
	r.mu.Lock()
	r.status.lastCheck = result
	r.status.consecFailures = 0
	prev := r.status.state
	if prev != StateUp {
		r.setStateLocked(StateUp)
		r.status.upSince = time.Now()
	}
	r.mu.Unlock()

	if prev != StateUp {
		r.logger.Info("Target is up", "previous_state", prev.String())
		r.target.OnUp()
	}
}

// recordFailure counts a failed check and reports whether the failure
// threshold has been reached.
func (r *targetRunner) recordFailure(result *HealthResult) bool {
	r.mu.Lock()
	r.status.lastCheck = result
	r.status.consecFailures++
	r.status.totalFailures++
	failures := r.status.consecFailures

	if int(failures) < r.config.FailureThreshold {
		r.mu.Unlock()
		r.logger.Warn("Health check failed", "failures", failures, "threshold", r.config.FailureThreshold, "error", result.Error)
		return false
	}

	wentDown := r.status.state == StateUp || r.status.state == StateInit
	if wentDown {
		r.setStateLocked(StateDown)
		r.status.upSince = time.Time{}
	}
	r.mu.Unlock()

	if wentDown {
		r.logger.Error("Target is down", "failures", failures, "error", result.Error)
		r.target.OnDown()
	}
	return true
}

func (r *targetRunner) dispatchAction(ctx context.Context) {
	switch r.config.OnFailure {
	case ActionRestart:
		r.doRestart(ctx)
	case ActionWarn:
		r.logger.Warn("Target down, no restart configured")
	default:
		r.logger.Warn("Unknown failure action", "action", r.config.OnFailure)
	}
}

func (r *targetRunner) doRestart(ctx context.Context) {
	r.mu.Lock()
	last := r.status.lastRestart
	r.mu.Unlock()

	if !last.IsZero() && r.config.MinRestartInterval > 0 {
		if wait := r.config.MinRestartInterval - time.Since(last); wait > 0 {
			r.logger.Warn("Restart rate limited", "wait", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}

	r.mu.Lock()
	r.setStateLocked(StateRestarting)
	r.status.lastRestart = time.Now()
	r.status.totalRestarts++
	r.mu.Unlock()

	r.logger.Info("Restarting target")
	err := r.target.Restart(ctx)

	r.mu.Lock()
	if err == nil {
		r.status.consecFailures = 0
	}
	// The next check decides whether the target is back up.
	r.setStateLocked(StateDown)
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Restart failed", "error", err)
		return
	}
	r.logger.Info("Restart succeeded")
}

func (r *targetRunner) setStateLocked(s TargetState) {
	r.status.state = s
	r.status.lastStateChange = time.Now()
}

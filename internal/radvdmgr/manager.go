package radvdmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/radvsup/pkg/component"
	"github.com/veesix-networks/radvsup/pkg/config"
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/logger"
	"github.com/veesix-networks/radvsup/pkg/radvd"
)

type entry struct {
	sup   *radvd.Supervisor
	netns string
}

type Option func(*Manager)

func WithLinkChecker(lc LinkChecker) Option {
	return func(m *Manager) {
		m.links = lc
	}
}

// Manager keeps one radvd supervisor per configured interface in line with
// the daemon configuration.
type Manager struct {
	*component.Base
	logger *slog.Logger
	deps   component.Dependencies
	links  LinkChecker
	sink   radvd.EventSink

	mu          sync.Mutex
	radvdCfg    config.RadvdConfig
	supervisors map[string]*entry
	created     []string
}

func New(deps component.Dependencies, opts ...Option) (*Manager, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("radvd manager: config is required")
	}
	if deps.Runtime == nil {
		deps.Runtime = radvd.NewExecRuntime()
	}

	m := &Manager{
		Base:        component.NewBase("radvd-manager"),
		logger:      logger.Get(logger.Manager),
		deps:        deps,
		links:       NetlinkChecker{},
		sink:        NewBusSink(deps.EventBus),
		radvdCfg:    deps.Config.Radvd,
		supervisors: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Start(ctx context.Context) error {
	m.StartContext(ctx)
	m.logger.Info("Starting radvd manager", "interfaces", len(m.deps.Config.Interfaces))
	if err := m.Apply(m.deps.Config); err != nil {
		m.logger.Warn("Initial apply incomplete", "error", err)
	}
	return nil
}

// Stop stops every supervised radvd, newest first.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("Stopping radvd manager")
	m.StopContext()

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.created) - 1; i >= 0; i-- {
		name := m.created[i]
		e, ok := m.supervisors[name]
		if !ok {
			continue
		}
		if err := e.sup.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Apply reconciles supervisors with cfg: removed interfaces are stopped,
// new ones created, and any supervisor whose prefix set changed is
// restarted. Interfaces whose link does not exist are skipped.
func (m *Manager) Apply(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	var restarted, removed []string

	if cfg.Radvd != m.radvdCfg {
		m.logger.Info("radvd settings changed, recreating all supervisors")
		for _, name := range m.sortedNames() {
			if err := m.removeLocked(name); err != nil {
				errs = append(errs, err)
			}
		}
		m.radvdCfg = cfg.Radvd
	}

	for _, name := range m.sortedNames() {
		if _, ok := cfg.Interfaces[name]; ok {
			continue
		}
		if err := m.removeLocked(name); err != nil {
			errs = append(errs, err)
		}
		removed = append(removed, name)
	}

	for _, name := range cfg.InterfaceNames() {
		ic := cfg.Interfaces[name]
		log := logger.WithInterface(m.logger, name)

		desired, err := cfg.InterfacePrefixes(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		exists, err := m.links.LinkExists(ic.Netns, name)
		if err != nil {
			log.Warn("Link lookup failed, skipping interface", "netns", ic.Netns, "error", err)
			errs = append(errs, fmt.Errorf("%s: link lookup: %w", name, err))
			continue
		}
		if !exists {
			log.Warn("Interface not found, skipping", "netns", ic.Netns)
			continue
		}

		e, ok := m.supervisors[name]
		if ok && e.netns != ic.Netns {
			if err := m.removeLocked(name); err != nil {
				errs = append(errs, err)
			}
			ok = false
		}
		if !ok {
			e = &entry{sup: m.newSupervisor(name, ic.Netns), netns: ic.Netns}
			m.supervisors[name] = e
			m.created = append(m.created, name)
			log.Info("Supervisor created", "netns", ic.Netns)
		}

		changed, err := syncPrefixes(e.sup, desired)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		if !changed && e.sup.State() == radvd.StateAnnouncing {
			continue
		}

		if err := e.sup.Restart(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if e.sup.State() != radvd.StateAnnouncing {
			log.Debug("No prefixes to announce")
			continue
		}
		logger.WithPrefixes(log, ic.Prefixes).Info("Applied prefixes")
		restarted = append(restarted, name)
	}

	if m.deps.EventBus != nil {
		m.deps.EventBus.Publish(events.TopicConfigApplied, events.Event{
			Source: "radvd-manager",
			Data: events.ConfigAppliedEvent{
				Interfaces: m.sortedNames(),
				Restarted:  restarted,
				Removed:    removed,
			},
		})
	}

	return errors.Join(errs...)
}

// Get returns the supervisor for ifname.
func (m *Manager) Get(ifname string) (*radvd.Supervisor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.supervisors[ifname]
	if !ok {
		return nil, false
	}
	return e.sup, true
}

// Supervisors returns all supervisors sorted by interface name.
func (m *Manager) Supervisors() []*radvd.Supervisor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*radvd.Supervisor, 0, len(m.supervisors))
	for _, name := range m.sortedNames() {
		out = append(out, m.supervisors[name].sup)
	}
	return out
}

func (m *Manager) newSupervisor(name, nsName string) *radvd.Supervisor {
	rt := m.deps.Runtime
	if nsName != "" {
		rt = radvd.NewNetnsRuntime(rt, nsName)
	}

	opts := []radvd.Option{
		radvd.WithBinary(m.radvdCfg.Binary),
		radvd.WithConfDir(m.radvdCfg.ConfDir),
		radvd.WithPidDir(m.radvdCfg.PidDir),
		radvd.WithRuntime(rt),
		radvd.WithFs(m.deps.Fs),
		radvd.WithMetrics(m.deps.Metrics),
	}
	if m.radvdCfg.StrictConfig {
		opts = append(opts, radvd.WithStrictConfig())
	}
	if m.radvdCfg.Foreground {
		opts = append(opts, radvd.WithForeground())
	}
	return radvd.New(m.sink, name, opts...)
}

func (m *Manager) removeLocked(name string) error {
	e, ok := m.supervisors[name]
	if !ok {
		return nil
	}
	delete(m.supervisors, name)
	for i, n := range m.created {
		if n == name {
			m.created = append(m.created[:i], m.created[i+1:]...)
			break
		}
	}
	m.deps.Metrics.Forget(name)
	m.logger.Info("Supervisor removed", "interface", name)

	if err := e.sup.Stop(); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	return nil
}

func (m *Manager) sortedNames() []string {
	names := make([]string, 0, len(m.supervisors))
	for name := range m.supervisors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// syncPrefixes makes the supervisor hold exactly desired, in desired order
// for newly added prefixes. It reports whether the set changed.
func syncPrefixes(sup *radvd.Supervisor, desired []radvd.Prefix) (bool, error) {
	want := radvd.NewPrefixSet(desired...)
	changed := false

	for _, p := range sup.Prefixes() {
		if want.Contains(p) {
			continue
		}
		if err := sup.DelPrefix(p); err != nil {
			return changed, err
		}
		changed = true
	}

	have := radvd.NewPrefixSet(sup.Prefixes()...)
	for _, p := range want.List() {
		if have.Contains(p) {
			continue
		}
		if err := sup.AddPrefix(p); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// InterfaceStatus is the externally visible state of one supervisor.
type InterfaceStatus struct {
	Interface   string   `json:"interface"`
	Netns       string   `json:"netns,omitempty"`
	State       string   `json:"state"`
	PID         int      `json:"pid,omitempty"`
	Prefixes    []string `json:"prefixes"`
	ConfigPath  string   `json:"config-path"`
	ConfigError string   `json:"config-error,omitempty"`
}

// Status returns the state of every supervisor sorted by interface name.
func (m *Manager) Status() []InterfaceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]InterfaceStatus, 0, len(m.supervisors))
	for _, name := range m.sortedNames() {
		e := m.supervisors[name]
		st := InterfaceStatus{
			Interface:  name,
			Netns:      e.netns,
			State:      e.sup.State().String(),
			PID:        e.sup.PID(),
			ConfigPath: e.sup.ConfigPath(),
		}
		for _, p := range e.sup.Prefixes() {
			st.Prefixes = append(st.Prefixes, p.String())
		}
		if st.Prefixes == nil {
			st.Prefixes = []string{}
		}
		if err := e.sup.LastConfigError(); err != nil {
			st.ConfigError = err.Error()
		}
		out = append(out, st)
	}
	return out
}

package radvd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/veesix-networks/radvsup/pkg/logger"
	"golang.org/x/sys/unix"
)

const (
	DefaultBinary  = "/sbin/radvd"
	DefaultConfDir = "."
	DefaultPidDir  = "/var/run/radvd"
)

var ErrLaunch = errors.New("radvd launch failed")

type State int

const (
	StateStopped State = iota
	StateAnnouncing
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateAnnouncing:
		return "announcing"
	default:
		return "unknown"
	}
}

type Option func(*Supervisor)

// WithConfDir sets the directory holding radvd.<iface>.conf.
func WithConfDir(dir string) Option {
	return func(s *Supervisor) {
		if dir != "" {
			s.confDir = dir
		}
	}
}

func WithPidDir(dir string) Option {
	return func(s *Supervisor) {
		if dir != "" {
			s.pidDir = dir
		}
	}
}

func WithBinary(path string) Option {
	return func(s *Supervisor) {
		if path != "" {
			s.binary = path
		}
	}
}

func WithFs(fs afero.Fs) Option {
	return func(s *Supervisor) {
		if fs != nil {
			s.fs = fs
		}
	}
}

func WithRuntime(rt ProcessRuntime) Option {
	return func(s *Supervisor) {
		if rt != nil {
			s.runtime = rt
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// WithStrictConfig makes Start fail when the configuration cannot be
// written instead of launching radvd against whatever is on disk.
func WithStrictConfig() Option {
	return func(s *Supervisor) {
		s.strictConfig = true
	}
}

// WithForeground passes -n so radvd does not fork away from the tracked PID.
func WithForeground() Option {
	return func(s *Supervisor) {
		s.foreground = true
	}
}

// Supervisor runs at most one radvd for a single interface and regenerates
// its configuration from the held prefix set on every start.
type Supervisor struct {
	mu sync.Mutex

	sink         EventSink
	ifname       string
	confDir      string
	pidDir       string
	binary       string
	fs           afero.Fs
	runtime      ProcessRuntime
	metrics      *Metrics
	strictConfig bool
	foreground   bool
	logger       *slog.Logger

	prefixes      *PrefixSet
	proc          Process
	state         State
	lastConfigErr error
}

func New(sink EventSink, ifname string, opts ...Option) *Supervisor {
	if sink == nil {
		sink = discardSink{}
	}

	s := &Supervisor{
		sink:     sink,
		ifname:   ifname,
		confDir:  DefaultConfDir,
		pidDir:   DefaultPidDir,
		binary:   DefaultBinary,
		fs:       afero.NewOsFs(),
		runtime:  NewExecRuntime(),
		logger:   logger.WithInterface(logger.Get(logger.Radvd), ifname),
		prefixes: NewPrefixSet(),
		state:    StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.setPrefixes(ifname, 0)
	s.metrics.setAnnouncing(ifname, false)
	return s
}

func (s *Supervisor) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("<radvd [%s] [state: %s]>", s.ifname, s.state)
}

func (s *Supervisor) Interface() string { return s.ifname }

func (s *Supervisor) ConfigPath() string {
	return strings.TrimSuffix(s.confDir, "/") + "/radvd." + s.ifname + ".conf"
}

func (s *Supervisor) PidPath() string {
	return strings.TrimSuffix(s.pidDir, "/") + "/radvd." + s.ifname + ".pid"
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the tracked process ID, or 0 when no daemon is held.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid()
}

// Alive reports whether the tracked daemon still exists.
func (s *Supervisor) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return false
	}
	return s.runtime.Alive(s.proc.Pid())
}

func (s *Supervisor) Prefixes() []Prefix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefixes.List()
}

// LastConfigError returns the error from the most recent configuration
// write, or nil if it succeeded.
func (s *Supervisor) LastConfigError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConfigErr
}

// AddPrefix queues p for advertisement. It takes effect on the next Start
// or Restart. Adding a prefix that is already held is a no-op.
func (s *Supervisor) AddPrefix(p Prefix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !p.Valid() {
		s.logger.Warn("Ignoring prefix, not an IPv6 prefix", "prefix", p.String())
		return fmt.Errorf("add prefix: %w", ErrInvalidPrefix)
	}
	if s.prefixes.Add(p) {
		s.logger.Debug("Prefix added", "prefix", p.String())
		s.metrics.setPrefixes(s.ifname, s.prefixes.Len())
	}
	return nil
}

// DelPrefix removes p. Removing a prefix that is not held is a no-op.
func (s *Supervisor) DelPrefix(p Prefix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !p.Valid() {
		s.logger.Warn("Ignoring prefix, not an IPv6 prefix", "prefix", p.String())
		return fmt.Errorf("delete prefix: %w", ErrInvalidPrefix)
	}
	if s.prefixes.Remove(p) {
		s.logger.Debug("Prefix removed", "prefix", p.String())
		s.metrics.setPrefixes(s.ifname, s.prefixes.Len())
	}
	return nil
}

// Start regenerates the configuration and launches radvd, stopping any
// daemon already held first. With no prefixes the launch is suppressed
// and the supervisor stays stopped.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start()
}

// Stop signals the held daemon with SIGINT and releases it. The state is
// stopped afterwards even if delivering the signal failed.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

// Restart stops an announcing daemon and starts a new one from the current
// prefix set. The configuration is rebuilt once, by start.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAnnouncing {
		if err := s.stop(); err != nil {
			s.logger.Warn("Stop during restart failed", "error", err)
		}
	}
	return s.start()
}

func (s *Supervisor) start() error {
	if s.proc != nil {
		if err := s.stop(); err != nil {
			s.logger.Warn("Failed to stop previous radvd", "error", err)
		}
	}

	if err := s.rebuildConfig(); err != nil && s.strictConfig {
		return err
	}

	if s.prefixes.Len() == 0 {
		s.logger.Info("No prefixes available for radvd, suppressing start")
		return nil
	}

	args := s.args()
	s.state = StateAnnouncing
	s.logger.Info("Starting radvd", "binary", s.binary, "args", strings.Join(args, " "))

	proc, err := s.runtime.Launch(s.binary, args)
	if err != nil {
		s.state = StateStopped
		s.metrics.launchFailed(s.ifname)
		s.logger.Error("Failed to launch radvd", "binary", s.binary, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrLaunch, s.ifname, err)
	}

	s.proc = proc
	s.metrics.daemonStarted(s.ifname)
	s.logger.Info("radvd started", "pid", proc.Pid(), "prefixes", s.prefixes.Len())
	s.sink.Notify(Event{Type: EventDaemonStarted, Interface: s.ifname, PID: proc.Pid()})
	return nil
}

func (s *Supervisor) stop() error {
	s.state = StateStopped
	s.metrics.setAnnouncing(s.ifname, false)

	if s.proc == nil {
		return nil
	}

	pid := s.proc.Pid()
	s.logger.Info("Stopping radvd", "pid", pid)

	err := s.runtime.Signal(pid, unix.SIGINT)
	if errors.Is(err, unix.ESRCH) {
		s.logger.Debug("radvd already gone", "pid", pid)
		err = nil
	}

	s.proc = nil
	s.metrics.daemonStopped(s.ifname)
	s.sink.Notify(Event{Type: EventDaemonStopped, Interface: s.ifname, PID: pid})

	if err != nil {
		return fmt.Errorf("signal radvd pid %d: %w", pid, err)
	}
	return nil
}

func (s *Supervisor) args() []string {
	args := []string{"-C", s.ConfigPath(), "-p", s.PidPath()}
	if s.foreground {
		args = append(args, "-n")
	}
	return args
}

func (s *Supervisor) rebuildConfig() error {
	path := s.ConfigPath()
	err := WriteConfig(s.fs, path, NewConfigData(s.ifname, s.prefixes.List()))
	s.lastConfigErr = err
	if err != nil {
		s.metrics.configWriteFailed(s.ifname)
		s.logger.Warn("Failed to write radvd config, on-disk config may be stale", "path", path, "error", err)
		return fmt.Errorf("write radvd config: %w", err)
	}
	s.logger.Debug("Wrote radvd config", "path", path, "prefixes", s.prefixes.Len())
	return nil
}

// Package radvdtest provides an in-memory radvd.ProcessRuntime for tests.
package radvdtest

import (
	"sync"

	"github.com/veesix-networks/radvsup/pkg/radvd"
	"golang.org/x/sys/unix"
)

type Launch struct {
	Binary string
	Args   []string
	PID    int
}

type Signal struct {
	PID    int
	Signal unix.Signal
}

type process struct{ pid int }

func (p process) Pid() int { return p.pid }

// Runtime records launches and signals. Launched processes stay alive
// until signalled or killed with Kill.
type Runtime struct {
	mu sync.Mutex

	LaunchErr error
	SignalErr error

	nextPID  int
	alive    map[int]bool
	launches []Launch
	signals  []Signal
	calls    []string
}

func NewRuntime() *Runtime {
	return &Runtime{nextPID: 1000, alive: make(map[int]bool)}
}

func (r *Runtime) Launch(binary string, args []string) (radvd.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, "launch")
	if r.LaunchErr != nil {
		return nil, r.LaunchErr
	}
	r.nextPID++
	pid := r.nextPID
	r.alive[pid] = true
	r.launches = append(r.launches, Launch{Binary: binary, Args: append([]string(nil), args...), PID: pid})
	return process{pid: pid}, nil
}

func (r *Runtime) Signal(pid int, sig unix.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, "signal")
	r.signals = append(r.signals, Signal{PID: pid, Signal: sig})
	if r.SignalErr != nil {
		return r.SignalErr
	}
	if !r.alive[pid] {
		return unix.ESRCH
	}
	delete(r.alive, pid)
	return nil
}

func (r *Runtime) Alive(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive[pid]
}

// Kill makes pid disappear without a signal, as if the daemon crashed.
func (r *Runtime) Kill(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alive, pid)
}

func (r *Runtime) Launches() []Launch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Launch(nil), r.launches...)
}

func (r *Runtime) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// Calls returns the order of "launch" and "signal" calls.
func (r *Runtime) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type Recorder struct {
	mu     sync.Mutex
	events []radvd.Event
}

func (r *Recorder) Notify(e radvd.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []radvd.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]radvd.Event(nil), r.events...)
}

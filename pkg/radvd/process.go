package radvd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sys/unix"
)

// Process is a launched daemon.
type Process interface {
	Pid() int
}

// ProcessRuntime starts binaries and delivers signals to them by PID.
type ProcessRuntime interface {
	Launch(binary string, args []string) (Process, error)
	Signal(pid int, sig unix.Signal) error
	Alive(pid int) bool
}

type execProcess struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

// Exited is closed once the child has been reaped.
func (p *execProcess) Exited() <-chan struct{} { return p.exited }

func (p *execProcess) reaped() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// ExecRuntime launches processes with os/exec. Children are reaped in the
// background so a dead daemon does not linger as a zombie. Once a child it
// launched has been reaped, its PID is never signalled again.
type ExecRuntime struct {
	Stdout *os.File
	Stderr *os.File

	kill func(pid int, sig unix.Signal) error

	mu    sync.Mutex
	procs map[int]*execProcess
}

func NewExecRuntime() *ExecRuntime {
	return &ExecRuntime{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		kill:   unix.Kill,
		procs:  make(map[int]*execProcess),
	}
}

func (r *ExecRuntime) Launch(binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &execProcess{cmd: cmd, exited: make(chan struct{})}
	r.mu.Lock()
	if r.procs == nil {
		r.procs = make(map[int]*execProcess)
	}
	r.procs[p.Pid()] = p
	r.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()
	return p, nil
}

// reaped reports whether pid belongs to a child of this runtime that has
// already exited. Unknown PIDs are not reaped.
func (r *ExecRuntime) reaped(pid int) bool {
	r.mu.Lock()
	p, ok := r.procs[pid]
	r.mu.Unlock()
	return ok && p.reaped()
}

func (r *ExecRuntime) Signal(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if r.reaped(pid) {
		return unix.ESRCH
	}
	return r.killer()(pid, sig)
}

func (r *ExecRuntime) Alive(pid int) bool {
	if pid <= 0 || r.reaped(pid) {
		return false
	}
	err := r.killer()(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func (r *ExecRuntime) killer() func(int, unix.Signal) error {
	if r.kill == nil {
		return unix.Kill
	}
	return r.kill
}

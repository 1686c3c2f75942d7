package radvd

import (
	"fmt"
	"runtime"

	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// NetnsRuntime launches processes inside a named network namespace. A child
// inherits the namespace of the OS thread that forks it, so each launch runs
// on a dedicated locked thread switched into the target namespace.
type NetnsRuntime struct {
	Runtime   ProcessRuntime
	Namespace string
}

func NewNetnsRuntime(rt ProcessRuntime, namespace string) *NetnsRuntime {
	return &NetnsRuntime{Runtime: rt, Namespace: namespace}
}

type launchResult struct {
	proc Process
	err  error
}

func (r *NetnsRuntime) Launch(binary string, args []string) (Process, error) {
	if r.Namespace == "" {
		return r.Runtime.Launch(binary, args)
	}

	ch := make(chan launchResult, 1)
	go func() {
		runtime.LockOSThread()
		ch <- r.launchIn(binary, args)
	}()
	res := <-ch
	return res.proc, res.err
}

// launchIn must run on a locked thread. The thread is only unlocked once it
// is back in its original namespace; otherwise it exits with the goroutine.
func (r *NetnsRuntime) launchIn(binary string, args []string) launchResult {
	orig, err := netns.Get()
	if err != nil {
		return launchResult{err: fmt.Errorf("get current netns: %w", err)}
	}
	defer orig.Close()

	target, err := netns.GetFromName(r.Namespace)
	if err != nil {
		runtime.UnlockOSThread()
		return launchResult{err: fmt.Errorf("get netns %q: %w", r.Namespace, err)}
	}
	defer target.Close()

	if err := netns.Set(target); err != nil {
		return launchResult{err: fmt.Errorf("enter netns %q: %w", r.Namespace, err)}
	}

	proc, launchErr := r.Runtime.Launch(binary, args)

	if err := netns.Set(orig); err != nil {
		if proc != nil {
			_ = r.Runtime.Signal(proc.Pid(), unix.SIGINT)
		}
		return launchResult{err: fmt.Errorf("restore netns after launch: %w", err)}
	}
	runtime.UnlockOSThread()

	return launchResult{proc: proc, err: launchErr}
}

func (r *NetnsRuntime) Signal(pid int, sig unix.Signal) error {
	return r.Runtime.Signal(pid, sig)
}

func (r *NetnsRuntime) Alive(pid int) bool {
	return r.Runtime.Alive(pid)
}

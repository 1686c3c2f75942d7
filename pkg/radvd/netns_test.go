package radvd_test

import (
	"fmt"
	"os"
	"runtime"
	"testing"

	"github.com/veesix-networks/radvsup/pkg/radvd"
	"github.com/veesix-networks/radvsup/pkg/radvd/radvdtest"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

func TestNetnsRuntimeDefaultNamespacePassesThrough(t *testing.T) {
	inner := radvdtest.NewRuntime()
	rt := radvd.NewNetnsRuntime(inner, "")

	proc, err := rt.Launch("/usr/sbin/radvd", []string{"-C", "/etc/radvd.conf"})
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	launches := inner.Launches()
	if len(launches) != 1 {
		t.Fatalf("inner launches = %d, want 1", len(launches))
	}
	if launches[0].PID != proc.Pid() {
		t.Errorf("pid = %d, want %d", proc.Pid(), launches[0].PID)
	}
	if !rt.Alive(proc.Pid()) {
		t.Error("Alive() = false after launch")
	}
	if err := rt.Signal(proc.Pid(), unix.SIGINT); err != nil {
		t.Errorf("Signal() error = %v", err)
	}
	if rt.Alive(proc.Pid()) {
		t.Error("Alive() = true after SIGINT")
	}
}

func TestNetnsRuntimeMissingNamespace(t *testing.T) {
	inner := radvdtest.NewRuntime()
	rt := radvd.NewNetnsRuntime(inner, fmt.Sprintf("radvsup-missing-%d", os.Getpid()))

	proc, err := rt.Launch("/usr/sbin/radvd", nil)
	if err == nil {
		t.Fatal("Launch() error = nil for missing namespace")
	}
	if proc != nil {
		t.Errorf("Launch() process = %v, want nil", proc)
	}
	if n := len(inner.Launches()); n != 0 {
		t.Errorf("inner launches = %d, want 0", n)
	}
}

func TestNetnsRuntimeLaunchesInNamedNamespace(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("creating a network namespace requires root")
	}

	name := fmt.Sprintf("radvsup-test-%d", os.Getpid())
	createNamedNetns(t, name)

	before, err := netns.Get()
	if err != nil {
		t.Fatalf("netns.Get() error = %v", err)
	}
	defer before.Close()

	inner := radvdtest.NewRuntime()
	rt := radvd.NewNetnsRuntime(inner, name)
	if _, err := rt.Launch("/usr/sbin/radvd", nil); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if n := len(inner.Launches()); n != 1 {
		t.Errorf("inner launches = %d, want 1", n)
	}

	after, err := netns.Get()
	if err != nil {
		t.Fatalf("netns.Get() error = %v", err)
	}
	defer after.Close()
	if !before.Equal(after) {
		t.Error("caller namespace changed by launch")
	}
}

func createNamedNetns(t *testing.T, name string) {
	t.Helper()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		t.Fatalf("netns.Get() error = %v", err)
	}
	defer orig.Close()

	ns, err := netns.NewNamed(name)
	if err != nil {
		t.Fatalf("netns.NewNamed(%q) error = %v", name, err)
	}
	ns.Close()

	if err := netns.Set(orig); err != nil {
		t.Fatalf("restore netns: %v", err)
	}
	t.Cleanup(func() { netns.DeleteNamed(name) })
}

package radvdmgr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/radvsup/pkg/component"
	"github.com/veesix-networks/radvsup/pkg/config"
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/events/local"
	"github.com/veesix-networks/radvsup/pkg/radvd"
	"github.com/veesix-networks/radvsup/pkg/radvd/radvdtest"
)

type fakeLinks struct {
	mu    sync.Mutex
	links map[string]bool
	err   error
}

func newFakeLinks(names ...string) *fakeLinks {
	f := &fakeLinks{links: make(map[string]bool)}
	for _, n := range names {
		f.links[n] = true
	}
	return f
}

func (f *fakeLinks) LinkExists(nsName, ifname string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.links[nsName+"/"+ifname] || (nsName == "" && f.links[ifname]), nil
}

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

type testEnv struct {
	rt  *radvdtest.Runtime
	fs  afero.Fs
	bus *local.Bus
	mgr *Manager
}

func newTestEnv(t *testing.T, cfg *config.Config, links LinkChecker) *testEnv {
	t.Helper()
	env := &testEnv{
		rt:  radvdtest.NewRuntime(),
		fs:  afero.NewMemMapFs(),
		bus: local.NewBus(),
	}
	t.Cleanup(func() { env.bus.Close() })

	mgr, err := New(component.Dependencies{
		EventBus: env.bus,
		Config:   cfg,
		Fs:       env.fs,
		Runtime:  env.rt,
	}, WithLinkChecker(links))
	require.NoError(t, err)
	env.mgr = mgr
	return env
}

const twoInterfaces = `
radvd:
  conf-dir: /etc/radvsup
interfaces:
  veth0:
    prefixes:
      - 2001:db8:0:1::/64
  veth1:
    prefixes:
      - 2001:db8:0:2::/64
      - 2001:db8:0:3::/64
`

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(component.Dependencies{})
	require.Error(t, err)
}

func TestStartCreatesAndStartsSupervisors(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	env := newTestEnv(t, cfg, newFakeLinks("veth0", "veth1"))

	var mu sync.Mutex
	var lifecycle []events.RadvdLifecycleEvent
	env.bus.Subscribe(events.TopicRadvdLifecycle, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		lifecycle = append(lifecycle, e.Data.(events.RadvdLifecycleEvent))
	})

	require.NoError(t, env.mgr.Start(context.Background()))

	sups := env.mgr.Supervisors()
	require.Len(t, sups, 2)
	assert.Equal(t, "veth0", sups[0].Interface())
	assert.Equal(t, "veth1", sups[1].Interface())
	for _, s := range sups {
		assert.Equal(t, radvd.StateAnnouncing, s.State())
	}

	veth1, ok := env.mgr.Get("veth1")
	require.True(t, ok)
	assert.Equal(t, []radvd.Prefix{
		radvd.MustParsePrefix("2001:db8:0:2::/64"),
		radvd.MustParsePrefix("2001:db8:0:3::/64"),
	}, veth1.Prefixes())
	assert.Equal(t, "/etc/radvsup/radvd.veth1.conf", veth1.ConfigPath())

	conf, err := afero.ReadFile(env.fs, "/etc/radvsup/radvd.veth1.conf")
	require.NoError(t, err)
	assert.Contains(t, string(conf), "prefix 2001:db8:0:3::/64")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lifecycle) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.mgr.Stop(context.Background()))
	for _, s := range env.mgr.Supervisors() {
		assert.Equal(t, radvd.StateStopped, s.State())
	}
	assert.Len(t, env.rt.Signals(), 2)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lifecycle) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, events.RadvdStopped, lifecycle[2].Action)
	assert.Equal(t, "veth1", lifecycle[2].Interface, "newest supervisor stops first")
}

func TestApplyRestartsOnlyChangedInterfaces(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	env := newTestEnv(t, cfg, newFakeLinks("veth0", "veth1"))
	require.NoError(t, env.mgr.Start(context.Background()))
	t.Cleanup(func() { env.mgr.Stop(context.Background()) })

	veth0, _ := env.mgr.Get("veth0")
	veth1, _ := env.mgr.Get("veth1")
	pid0, pid1 := veth0.PID(), veth1.PID()

	updated := parseConfig(t, `
radvd:
  conf-dir: /etc/radvsup
interfaces:
  veth0:
    prefixes:
      - 2001:db8:0:1::/64
  veth1:
    prefixes:
      - 2001:db8:0:3::/64
      - 2001:db8:0:4::/64
`)
	require.NoError(t, env.mgr.Apply(updated))

	assert.Equal(t, pid0, veth0.PID(), "unchanged interface must not restart")
	assert.NotEqual(t, pid1, veth1.PID())
	assert.Equal(t, []radvd.Prefix{
		radvd.MustParsePrefix("2001:db8:0:3::/64"),
		radvd.MustParsePrefix("2001:db8:0:4::/64"),
	}, veth1.Prefixes())

	signals := env.rt.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, pid1, signals[0].PID)
}

func TestApplyRemovesInterfaces(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	env := newTestEnv(t, cfg, newFakeLinks("veth0", "veth1"))
	require.NoError(t, env.mgr.Start(context.Background()))

	veth0, _ := env.mgr.Get("veth0")

	updated := parseConfig(t, `
radvd:
  conf-dir: /etc/radvsup
interfaces:
  veth1:
    prefixes:
      - 2001:db8:0:2::/64
      - 2001:db8:0:3::/64
`)
	require.NoError(t, env.mgr.Apply(updated))

	_, ok := env.mgr.Get("veth0")
	assert.False(t, ok)
	assert.Equal(t, radvd.StateStopped, veth0.State())
	assert.Len(t, env.mgr.Supervisors(), 1)
}

func TestApplyEmptyPrefixesStopsDaemon(t *testing.T) {
	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	env := newTestEnv(t, cfg, newFakeLinks("veth0"))
	require.NoError(t, env.mgr.Start(context.Background()))

	sup, _ := env.mgr.Get("veth0")
	require.Equal(t, radvd.StateAnnouncing, sup.State())

	require.NoError(t, env.mgr.Apply(parseConfig(t, "interfaces:\n  veth0:\n")))
	assert.Equal(t, radvd.StateStopped, sup.State())
	assert.Equal(t, []string{"launch", "signal"}, env.rt.Calls())
}

func TestApplyReportsOnlyAnnouncingAsRestarted(t *testing.T) {
	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n  veth1:\n")
	env := newTestEnv(t, cfg, newFakeLinks("veth0", "veth1"))

	applied := make(chan events.ConfigAppliedEvent, 1)
	env.bus.Subscribe(events.TopicConfigApplied, func(e events.Event) {
		if ev, ok := e.Data.(events.ConfigAppliedEvent); ok {
			applied <- ev
		}
	})

	require.NoError(t, env.mgr.Start(context.Background()))

	select {
	case ev := <-applied:
		assert.Equal(t, []string{"veth0", "veth1"}, ev.Interfaces)
		assert.Equal(t, []string{"veth0"}, ev.Restarted)
	case <-time.After(2 * time.Second):
		t.Fatal("no config applied event")
	}

	sup, ok := env.mgr.Get("veth1")
	require.True(t, ok)
	assert.Equal(t, radvd.StateStopped, sup.State())
}

func TestApplySkipsMissingLinks(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	links := newFakeLinks("veth0")
	env := newTestEnv(t, cfg, links)
	require.NoError(t, env.mgr.Start(context.Background()))

	_, ok := env.mgr.Get("veth1")
	assert.False(t, ok)
	assert.Len(t, env.rt.Launches(), 1)

	links.mu.Lock()
	links.links["veth1"] = true
	links.mu.Unlock()

	require.NoError(t, env.mgr.Apply(cfg))
	sup, ok := env.mgr.Get("veth1")
	require.True(t, ok)
	assert.Equal(t, radvd.StateAnnouncing, sup.State())
	assert.Len(t, env.rt.Launches(), 2)
}

func TestApplyReportsLinkLookupErrors(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	links := newFakeLinks()
	links.err = errors.New("netlink: permission denied")
	env := newTestEnv(t, cfg, links)

	err := env.mgr.Apply(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link lookup")
	assert.Empty(t, env.mgr.Supervisors())
}

func TestApplyRetriesFailedLaunch(t *testing.T) {
	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	env := newTestEnv(t, cfg, newFakeLinks("veth0"))
	env.rt.LaunchErr = errors.New("exec format error")

	err := env.mgr.Apply(cfg)
	require.ErrorIs(t, err, radvd.ErrLaunch)

	env.rt.LaunchErr = nil
	require.NoError(t, env.mgr.Apply(cfg))
	sup, _ := env.mgr.Get("veth0")
	assert.Equal(t, radvd.StateAnnouncing, sup.State())
}

func TestApplyNetnsWrapsRuntime(t *testing.T) {
	cfg := parseConfig(t, "interfaces:\n  veth0:\n    netns: dataplane\n")
	links := newFakeLinks("dataplane/veth0")
	env := newTestEnv(t, cfg, links)

	require.NoError(t, env.mgr.Apply(cfg))
	_, ok := env.mgr.Get("veth0")
	assert.True(t, ok)
	// No prefixes, so nothing is launched and the namespace is never entered.
	assert.Empty(t, env.rt.Launches())
}

func TestApplyRecreatesOnRadvdSettingsChange(t *testing.T) {
	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	env := newTestEnv(t, cfg, newFakeLinks("veth0"))
	require.NoError(t, env.mgr.Start(context.Background()))

	old, _ := env.mgr.Get("veth0")

	updated := parseConfig(t, "radvd:\n  binary: /usr/local/sbin/radvd\ninterfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	require.NoError(t, env.mgr.Apply(updated))

	cur, _ := env.mgr.Get("veth0")
	assert.NotSame(t, old, cur)
	assert.Equal(t, radvd.StateStopped, old.State())
	assert.Equal(t, radvd.StateAnnouncing, cur.State())

	launches := env.rt.Launches()
	require.Len(t, launches, 2)
	assert.Equal(t, "/usr/local/sbin/radvd", launches[1].Binary)
}

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radvsup.yaml")

	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	require.NoError(t, config.Save(path, cfg))

	env := newTestEnv(t, cfg, newFakeLinks("veth0"))
	require.NoError(t, env.mgr.Start(context.Background()))
	require.NoError(t, env.mgr.WatchConfig(path, 20*time.Millisecond))
	t.Cleanup(func() { env.mgr.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(path, []byte("interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n      - 2001:db8:1::/64\n"), 0o644))

	sup, _ := env.mgr.Get("veth0")
	require.Eventually(t, func() bool { return len(sup.Prefixes()) == 2 }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return len(env.rt.Launches()) == 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatchConfigIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radvsup.yaml")

	cfg := parseConfig(t, "interfaces:\n  veth0:\n    prefixes:\n      - 2001:db8::/64\n")
	require.NoError(t, config.Save(path, cfg))

	env := newTestEnv(t, cfg, newFakeLinks("veth0"))
	require.NoError(t, env.mgr.Start(context.Background()))
	require.NoError(t, env.mgr.WatchConfig(path, 20*time.Millisecond))

	applied := make(chan struct{}, 4)
	env.bus.Subscribe(events.TopicConfigApplied, func(events.Event) { applied <- struct{}{} })

	require.NoError(t, os.WriteFile(path, []byte("interfaces:\n  veth0:\n    prefixes:\n      - 10.0.0.0/8\n"), 0o644))

	select {
	case <-applied:
		t.Fatal("invalid config must not be applied")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, env.mgr.Stop(context.Background()))
	sup, _ := env.mgr.Get("veth0")
	assert.Equal(t, []radvd.Prefix{radvd.MustParsePrefix("2001:db8::/64")}, sup.Prefixes())
}

func TestBusSinkMapsEvents(t *testing.T) {
	bus := local.NewBus()
	defer bus.Close()

	got := make(chan events.Event, 2)
	bus.Subscribe(events.TopicRadvdLifecycle, func(e events.Event) { got <- e })

	sink := NewBusSink(bus)
	sink.Notify(radvd.Event{Type: radvd.EventDaemonStopped, Interface: "veth0", PID: 7})

	select {
	case e := <-got:
		assert.Equal(t, "radvd:veth0", e.Source)
		assert.Equal(t, events.RadvdLifecycleEvent{Interface: "veth0", Action: events.RadvdStopped, PID: 7}, e.Data)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	NewBusSink(nil).Notify(radvd.Event{})
}

func TestStatus(t *testing.T) {
	cfg := parseConfig(t, twoInterfaces)
	env := newTestEnv(t, cfg, newFakeLinks("veth0", "veth1"))
	require.NoError(t, env.mgr.Apply(cfg))

	require.NoError(t, env.mgr.Apply(parseConfig(t, `
radvd:
  conf-dir: /etc/radvsup
interfaces:
  veth0:
  veth1:
    prefixes:
      - 2001:db8:0:2::/64
      - 2001:db8:0:3::/64
`)))

	status := env.mgr.Status()
	require.Len(t, status, 2)

	assert.Equal(t, InterfaceStatus{
		Interface:  "veth0",
		State:      "stopped",
		Prefixes:   []string{},
		ConfigPath: "/etc/radvsup/radvd.veth0.conf",
	}, status[0])

	veth1, _ := env.mgr.Get("veth1")
	assert.Equal(t, InterfaceStatus{
		Interface:  "veth1",
		State:      "announcing",
		PID:        veth1.PID(),
		Prefixes:   []string{"2001:db8:0:2::/64", "2001:db8:0:3::/64"},
		ConfigPath: "/etc/radvsup/radvd.veth1.conf",
	}, status[1])
}

package targets

import (
	"context"
	"fmt"
	"time"

	"github.com/veesix-networks/radvsup/internal/watchdog"
	"github.com/veesix-networks/radvsup/pkg/radvd"
)

// SupervisorLookup resolves the current supervisor for an interface. The
// manager may replace supervisors on reload, so targets never hold one.
type SupervisorLookup func(ifname string) (*radvd.Supervisor, bool)

type RadvdTarget struct {
	ifname   string
	lookup   SupervisorLookup
	critical bool
}

func NewRadvdTarget(ifname string, lookup SupervisorLookup, critical bool) *RadvdTarget {
	return &RadvdTarget{
		ifname:   ifname,
		lookup:   lookup,
		critical: critical,
	}
}

func TargetName(ifname string) string { return "radvd:" + ifname }

func (t *RadvdTarget) Name() string { return TargetName(t.ifname) }

// Check reports an announcing supervisor whose daemon has gone as unhealthy.
// A stopped or absent supervisor has nothing to supervise and is healthy.
func (t *RadvdTarget) Check(ctx context.Context) *watchdog.HealthResult {
	start := time.Now()

	sup, ok := t.lookup(t.ifname)
	if !ok || sup.State() != radvd.StateAnnouncing {
		return watchdog.NewHealthResult(true, nil, time.Since(start))
	}

	if pid := sup.PID(); !sup.Alive() {
		return watchdog.NewHealthResult(false, fmt.Errorf("radvd pid %d not running", pid), time.Since(start))
	}
	return watchdog.NewHealthResult(true, nil, time.Since(start))
}

func (t *RadvdTarget) Restart(ctx context.Context) error {
	sup, ok := t.lookup(t.ifname)
	if !ok {
		return fmt.Errorf("no supervisor for %s", t.ifname)
	}
	return sup.Restart()
}

func (t *RadvdTarget) OnDown() {}
func (t *RadvdTarget) OnUp()   {}

func (t *RadvdTarget) Critical() bool { return t.critical }

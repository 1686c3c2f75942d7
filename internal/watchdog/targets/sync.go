package targets

import (
	"strings"

	"github.com/veesix-networks/radvsup/internal/watchdog"
)

// Sync registers a RadvdTarget for every interface in ifnames and drops
// radvd targets for interfaces no longer supervised.
func Sync(w *watchdog.Watchdog, ifnames []string, lookup SupervisorLookup, cfg watchdog.RunnerConfig) {
	want := make(map[string]string, len(ifnames))
	for _, ifname := range ifnames {
		want[TargetName(ifname)] = ifname
	}

	have := make(map[string]bool)
	for _, st := range w.GetAllStates() {
		if !strings.HasPrefix(st.Name, "radvd:") {
			continue
		}
		have[st.Name] = true
		if _, ok := want[st.Name]; !ok {
			w.Unregister(st.Name)
		}
	}

	for name, ifname := range want {
		if have[name] {
			continue
		}
		w.Register(NewRadvdTarget(ifname, lookup, true), cfg)
	}
}

package events

type RadvdAction string

const (
	RadvdStarted RadvdAction = "started"
	RadvdStopped RadvdAction = "stopped"
)

type RadvdLifecycleEvent struct {
	Interface string
	Action    RadvdAction
	PID       int
}

type ConfigAppliedEvent struct {
	Path       string
	Interfaces []string
	Restarted  []string
	Removed    []string
}

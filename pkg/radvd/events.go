package radvd

type EventType int

const (
	EventDaemonStarted EventType = iota + 1
	EventDaemonStopped
)

func (t EventType) String() string {
	switch t {
	case EventDaemonStarted:
		return "DAEMON_STARTED"
	case EventDaemonStopped:
		return "DAEMON_STOPPED"
	default:
		return "UNKNOWN"
	}
}

type Event struct {
	Type      EventType
	Interface string
	PID       int
}

// EventSink receives lifecycle notifications. Notify is called with the
// supervisor lock held and must not call back into the supervisor.
type EventSink interface {
	Notify(Event)
}

type EventSinkFunc func(Event)

func (f EventSinkFunc) Notify(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Notify(Event) {}

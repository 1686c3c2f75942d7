package radvdmgr

import (
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/radvd"
)

// BusSink forwards supervisor lifecycle events to the event bus.
type BusSink struct {
	bus events.Publisher
}

func NewBusSink(bus events.Publisher) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) Notify(e radvd.Event) {
	if s.bus == nil {
		return
	}

	action := events.RadvdStarted
	if e.Type == radvd.EventDaemonStopped {
		action = events.RadvdStopped
	}

	s.bus.Publish(events.TopicRadvdLifecycle, events.Event{
		Source: "radvd:" + e.Interface,
		Data: events.RadvdLifecycleEvent{
			Interface: e.Interface,
			Action:    action,
			PID:       e.PID,
		},
	})
}

package events

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

// Publisher is the producing half of a Bus. Publish never blocks; events
// that cannot be queued are dropped and counted.
type Publisher interface {
	Publish(topic string, event Event)
}

type Bus interface {
	Publisher
	Subscribe(topic string, handler Handler) Subscription
	SubscribeAll(handler Handler) Subscription
	Stats() Stats
	Close() error
}

type TopicStats struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

type Stats struct {
	Topics            []TopicStats `json:"topics"`
	GlobalSubscribers int          `json:"global-subscribers"`
	Queued            int          `json:"queued"`
	Capacity          int          `json:"capacity"`
	Published         uint64       `json:"published"`
	Dropped           uint64       `json:"dropped"`
}

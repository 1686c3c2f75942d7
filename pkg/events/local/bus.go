package local

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/logger"
)

const DefaultBufferSize = 1024

type publishRequest struct {
	topic string
	event events.Event
}

type subscription struct {
	id      uint64
	handler events.Handler
}

type sub struct {
	bus   *Bus
	topic string
	id    uint64
}

func (s *sub) Unsubscribe() {
	s.bus.removeSub(s.topic, s.id)
}

type globalSub struct {
	bus *Bus
	id  uint64
}

func (s *globalSub) Unsubscribe() {
	s.bus.removeGlobalSub(s.id)
}

type Option func(*Bus)

func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// Bus is an in-process events.Bus. A single dispatch goroutine delivers
// events in publish order; handlers run on that goroutine and must not block.
type Bus struct {
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	subs       map[string]map[uint64]*subscription
	globalSubs map[uint64]*subscription
	mu         sync.RWMutex
	nextID     atomic.Uint64
	bufferSize int
	publishCh  chan publishRequest
	logger     *slog.Logger
	published  atomic.Uint64
	dropped    atomic.Uint64
	closeOnce  sync.Once
}

func NewBus(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bus{
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		subs:       make(map[string]map[uint64]*subscription),
		globalSubs: make(map[uint64]*subscription),
		bufferSize: DefaultBufferSize,
		logger:     logger.Get(logger.Events),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.publishCh = make(chan publishRequest, b.bufferSize)

	go b.publishLoop()

	return b
}

func (b *Bus) Publish(topic string, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		event.Type = topic
	}

	if b.ctx.Err() != nil {
		b.dropped.Add(1)
		return
	}

	select {
	case b.publishCh <- publishRequest{topic: topic, event: event}:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn("Publish channel full, dropping event", "topic", topic)
	}
}

func (b *Bus) publishLoop() {
	defer close(b.done)
	for {
		select {
		case <-b.ctx.Done():
			return
		case req := <-b.publishCh:
			b.dispatch(req)
		}
	}
}

func (b *Bus) dispatch(req publishRequest) {
	b.mu.RLock()
	topicSubs := b.subs[req.topic]
	ordered := make([]*subscription, 0, len(topicSubs)+len(b.globalSubs))
	for _, s := range topicSubs {
		ordered = append(ordered, s)
	}
	for _, s := range b.globalSubs {
		ordered = append(ordered, s)
	}
	b.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	for _, s := range ordered {
		b.safeCall(req, s.handler)
	}
}

func (b *Bus) safeCall(req publishRequest, h events.Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked", "topic", req.topic, "event_id", req.event.ID, "panic", r)
		}
	}()
	h(req.event)
}

func (b *Bus) Subscribe(topic string, handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*subscription)
	}
	b.subs[topic][id] = &subscription{id: id, handler: handler}
	handlerCount := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Debug("Subscribed to topic", "topic", topic, "handler_count", handlerCount)

	return &sub{bus: b, topic: topic, id: id}
}

func (b *Bus) SubscribeAll(handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.globalSubs[id] = &subscription{id: id, handler: handler}
	count := len(b.globalSubs)
	b.mu.Unlock()

	b.logger.Debug("Subscribed to all topics", "global_subscriber_count", count)

	return &globalSub{bus: b, id: id}
}

func (b *Bus) removeSub(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topicSubs, ok := b.subs[topic]; ok {
		delete(topicSubs, id)
		if len(topicSubs) == 0 {
			delete(b.subs, topic)
		}
	}
}

func (b *Bus) removeGlobalSub(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.globalSubs, id)
}

func (b *Bus) Stats() events.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]events.TopicStats, 0, len(b.subs))
	for topic, subs := range b.subs {
		topics = append(topics, events.TopicStats{
			Topic:       topic,
			Subscribers: len(subs),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })

	return events.Stats{
		Topics:            topics,
		GlobalSubscribers: len(b.globalSubs),
		Queued:            len(b.publishCh),
		Capacity:          cap(b.publishCh),
		Published:         b.published.Load(),
		Dropped:           b.dropped.Load(),
	}
}

// Close stops dispatch. Events still queued are discarded.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		<-b.done
	})
	return nil
}

// Package events fans queue transitions out to live observers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/metrics"
)

// Subscription is one observer's bounded mailbox.
type Subscription struct {
	ID string

	bus     *Bus
	ch      chan domain.Event
	mu      sync.Mutex
	dropped atomic.Uint64
}

// Events returns the receive side. It is closed on Unsubscribe or Bus.Close.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Dropped reports how many events were discarded for this subscriber.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.bus.Unsubscribe(s.ID)
}

// deliver never blocks. When the mailbox is full the oldest pending event
// makes room for the new one.
func (s *Subscription) deliver(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- ev:
		return true
	default:
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.ch <- ev:
		return false
	default:
		s.dropped.Add(1)
		return false
	}
}

type Bus struct {
	subs   map[string]*Subscription
	logger *logger.Logger
	buffer int
	mu     sync.RWMutex
	closed bool
}

func NewBus(buffer int, log *logger.Logger) *Bus {
	if buffer <= 0 {
		buffer = constants.DefaultSubscriberBuffer
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bus{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		logger: log.WithComponent("events"),
	}
}

// Subscribe registers a new observer. Subscribing to a closed bus yields a
// subscription whose channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		ID:  uuid.New().String(),
		bus: b,
		ch:  make(chan domain.Event, b.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub.ID] = sub
	metrics.EventSubscribers.Inc()
	b.logger.Debug("Subscriber added", "subscriber_id", sub.ID, "total", len(b.subs))
	return sub
}

// Unsubscribe removes an observer and closes its channel. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	metrics.EventSubscribers.Dec()
	b.logger.Debug("Subscriber removed", "subscriber_id", id, "dropped", sub.Dropped(), "total", len(b.subs))
}

// Publish hands ev to every subscriber without waiting on any of them.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.deliver(ev) {
			metrics.EventsDropped.Inc()
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close disconnects every subscriber. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
		metrics.EventSubscribers.Dec()
	}
	b.logger.Info("Event bus closed")
}

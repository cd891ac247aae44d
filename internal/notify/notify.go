// Package notify carries change events between the filesystem watcher,
// the engine, and external subscribers. Delivery is asynchronous over
// buffered channels; events never reach into an in-flight pipeline
// run, they only ever lead to cache eviction and republication.
package notify

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vibex/vibectx/internal/cache"
)

// EventType discriminates bus events.
type EventType string

const (
	// PathsChanged reports filesystem changes, batched per debounce
	// window.
	PathsChanged EventType = "paths_changed"
	// ContextUpdated reports that the engine evicted cached documents
	// or rebuilt one after a forced refresh.
	ContextUpdated EventType = "context_updated"
)

// Event is one bus message. Result is set on ContextUpdated events
// that carry the freshly composed document.
type Event struct {
	ID            string
	Type          EventType
	AffectedPaths []string
	Result        *cache.Result
}

const (
	defaultSubscriberCapacity = 64
	defaultDedupeWindow       = 512
)

// Subscription is one live subscriber feed.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription and closes its channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Bus fans events out to subscribers. Republished duplicates are
// suppressed by event ID over a bounded window.
type Bus struct {
	mu          sync.Mutex
	subs        map[*subscriber]struct{}
	recentIDs   map[string]struct{}
	recentOrder []string
	closed      bool
	logger      *log.Logger
}

// NewBus returns an empty bus. logger may be nil.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{
		subs:      make(map[*subscriber]struct{}),
		recentIDs: make(map[string]struct{}),
		logger:    logger,
	}
}

// Subscribe registers a new subscriber. The returned channel is closed
// when the subscription or the bus is closed.
func (b *Bus) Subscribe() Subscription {
	sub := &subscriber{
		ch:     make(chan Event, defaultSubscriberCapacity),
		logger: b.logger,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		closed := make(chan Event)
		close(closed)
		return Subscription{Events: closed}
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return Subscription{
		Events: sub.ch,
		cancel: func() { b.remove(sub) },
	}
}

// Publish delivers the event to every live subscriber. An event with
// an empty ID is assigned one. It reports whether the event was new;
// duplicates within the dedupe window are dropped.
func (b *Bus) Publish(event Event) bool {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	b.mu.Lock()
	if b.closed || b.isDuplicate(event.ID) {
		b.mu.Unlock()
		return false
	}
	targets := make([]*subscriber, 0, len(b.subs))
	for sub := range b.subs {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(event)
	}
	return true
}

// Close closes every subscription. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.close()
	}
	b.subs = make(map[*subscriber]struct{})
}

func (b *Bus) remove(sub *subscriber) {
	b.mu.Lock()
	_, live := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if live {
		sub.close()
	}
}

// isDuplicate records the ID and reports whether it was already seen.
// Callers hold b.mu.
func (b *Bus) isDuplicate(id string) bool {
	if _, seen := b.recentIDs[id]; seen {
		return true
	}
	b.recentIDs[id] = struct{}{}
	b.recentOrder = append(b.recentOrder, id)
	if len(b.recentOrder) > defaultDedupeWindow {
		oldest := b.recentOrder[0]
		b.recentOrder = b.recentOrder[1:]
		delete(b.recentIDs, oldest)
	}
	return false
}

type subscriber struct {
	ch      chan Event
	logger  *log.Logger
	closeMu sync.Mutex
	closed  bool
}

// deliver sends without blocking. When the subscriber's buffer is full
// the oldest queued event is dropped in favor of the new one.
func (s *subscriber) deliver(event Event) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		select {
		case dropped := <-s.ch:
			if s.logger != nil {
				s.logger.Warn("notify: subscriber overflow, dropping event",
					"type", dropped.Type, "id", dropped.ID)
			}
		default:
		}
		s.ch <- event
	}
}

func (s *subscriber) close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

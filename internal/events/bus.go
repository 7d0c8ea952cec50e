package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dxing/mediavault/internal/logger"
)

// busConfig controls the in-memory bus sizing.
type busConfig struct {
	bufferSize      int
	maxStoredEvents int
}

// Bus is the in-memory EventBus implementation. A single dispatch
// goroutine fans events out to subscribers so handlers never run on the
// publisher's goroutine.
type Bus struct {
	cfg busConfig

	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	recent        []Event

	queue   chan Event
	done    chan struct{}
	started bool

	totalEvents   int64
	droppedEvents int64
	byType        sync.Map // EventType -> *int64
}

var (
	globalBus  EventBus
	globalOnce sync.Once
)

// GetGlobalEventBus returns the process-wide bus, creating it on first use.
func GetGlobalEventBus() EventBus {
	globalOnce.Do(func() {
		if globalBus == nil {
			globalBus = NewBus()
		}
	})
	return globalBus
}

// SetGlobalEventBus replaces the process-wide bus; intended for tests.
func SetGlobalEventBus(bus EventBus) {
	globalOnce.Do(func() {})
	globalBus = bus
}

// NewBus creates an event bus with default sizing.
func NewBus() *Bus {
	return &Bus{
		cfg:           busConfig{bufferSize: 1000, maxStoredEvents: 500},
		subscriptions: make(map[string]*Subscription),
		queue:         make(chan Event, 1000),
		done:          make(chan struct{}),
	}
}

// Start launches the dispatch loop. Calling Start twice is an error.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("event bus already started")
	}
	b.started = true
	b.mu.Unlock()

	go b.dispatchLoop(ctx)
	return nil
}

// Stop shuts down the dispatch loop after draining queued events.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	b.mu.Unlock()

	close(b.queue)
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish queues an event, blocking until there is room or ctx expires.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	select {
	case b.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAsync queues an event without blocking; the event is dropped and
// counted when the queue is full.
func (b *Bus) PublishAsync(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	select {
	case b.queue <- event:
		return nil
	default:
		atomic.AddInt64(&b.droppedEvents, 1)
		return fmt.Errorf("event bus queue full, dropped event %s", event.Type)
	}
}

// Subscribe registers a handler for events matching the filter.
func (b *Bus) Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("subscription handler is nil")
	}
	sub := &Subscription{
		ID:      uuid.New().String(),
		Filter:  filter,
		Handler: handler,
		Created: time.Now(),
	}

	b.mu.Lock()
	b.subscriptions[sub.ID] = sub
	b.mu.Unlock()

	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(subscriptionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscriptions[subscriptionID]; !ok {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(b.subscriptions, subscriptionID)
	return nil
}

// GetRecentEvents returns up to limit retained events, newest first.
func (b *Bus) GetRecentEvents(limit int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, b.recent[i])
	}
	return out
}

// GetStats returns event bus statistics.
func (b *Bus) GetStats() EventStats {
	b.mu.RLock()
	subs := len(b.subscriptions)
	b.mu.RUnlock()

	byType := make(map[string]int64)
	b.byType.Range(func(k, v interface{}) bool {
		byType[string(k.(EventType))] = atomic.LoadInt64(v.(*int64))
		return true
	})

	return EventStats{
		TotalEvents:         atomic.LoadInt64(&b.totalEvents),
		EventsByType:        byType,
		ActiveSubscriptions: subs,
		DroppedEvents:       atomic.LoadInt64(&b.droppedEvents),
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case event, ok := <-b.queue:
			if !ok {
				return
			}
			b.dispatch(event)
		case <-ctx.Done():
			// Drain whatever is already queued before exiting.
			for {
				select {
				case event, ok := <-b.queue:
					if !ok {
						return
					}
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(event Event) {
	atomic.AddInt64(&b.totalEvents, 1)
	counter, _ := b.byType.LoadOrStore(event.Type, new(int64))
	atomic.AddInt64(counter.(*int64), 1)

	b.mu.Lock()
	b.recent = append(b.recent, event)
	if len(b.recent) > b.cfg.maxStoredEvents {
		b.recent = b.recent[len(b.recent)-b.cfg.maxStoredEvents:]
	}
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.Filter.Matches(event) {
			subs = append(subs, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range subs {
		atomic.AddInt64(&sub.TriggerCount, 1)
		if err := sub.Handler(event); err != nil {
			logger.Warn("event handler failed", "subscription", sub.ID, "event_type", event.Type, "error", err)
		}
	}
}

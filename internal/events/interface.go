package events

import (
	"context"
)

// EventBus defines the interface for the event bus system
type EventBus interface {
	// Publish publishes an event and waits for it to be queued
	Publish(ctx context.Context, event Event) error

	// PublishAsync publishes an event without blocking; events may be
	// dropped if the bus is saturated
	PublishAsync(event Event) error

	// Subscribe registers a handler for events matching the filter
	Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (*Subscription, error)

	// Unsubscribe removes a subscription
	Unsubscribe(subscriptionID string) error

	// GetRecentEvents returns the most recent retained events, newest first
	GetRecentEvents(limit int) []Event

	// GetStats returns event bus statistics
	GetStats() EventStats

	// Start starts the dispatch loop
	Start(ctx context.Context) error

	// Stop drains and stops the dispatch loop
	Stop(ctx context.Context) error
}

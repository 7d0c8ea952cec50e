// Package events provides the in-process event bus used for scan
// lifecycle notifications and the admin event stream.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

// System-wide event types
const (
	// Scan events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanFailed    EventType = "scan.failed"

	// Media events
	EventMediaFileFound   EventType = "media.file.found"
	EventMediaFileRemoved EventType = "media.file.removed"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"

	// General events
	EventError   EventType = "error"
	EventWarning EventType = "warning"
	EventInfo    EventType = "info"
)

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  EventPriority          `json:"priority"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter represents filters for event subscriptions. Empty fields
// match everything.
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Matches reports whether the event passes the filter.
func (f EventFilter) Matches(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Sources) > 0 {
		found := false
		for _, s := range f.Sources {
			if s == e.Source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Subscription represents an event subscription
type Subscription struct {
	ID           string       `json:"id"`
	Filter       EventFilter  `json:"filter"`
	Handler      EventHandler `json:"-"`
	Created      time.Time    `json:"created"`
	TriggerCount int64        `json:"trigger_count"`
}

// EventStats represents statistics about events
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
	DroppedEvents       int64            `json:"dropped_events"`
}

// NewSystemEvent creates an event sourced from the system itself.
func NewSystemEvent(eventType EventType, title, message string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "system",
		Title:     title,
		Message:   message,
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// NewEvent creates an event with an explicit source.
func NewEvent(eventType EventType, source, title, message string) Event {
	e := NewSystemEvent(eventType, title, message)
	e.Source = source
	return e
}

// Package adapter defines the day-completion notification boundary.
//
// Adapters publish an event each time a day's shard target is finalized,
// letting downstream systems pick up completed archives without polling.
// The engine owns adapter lifecycle; publish failures are logged and
// counted, never fatal to the run.
package adapter

import "context"

// EventTypeDayCompleted is the event_type carried by every published event.
const EventTypeDayCompleted = "day_completed"

// DayCompletedEvent is the payload published when a day is finalized.
type DayCompletedEvent struct {
	SchemaVersion string `json:"schema_version"`
	EventType     string `json:"event_type"` // always "day_completed"
	Day           string `json:"day"`
	Records       int64  `json:"records"`
	Bytes         int64  `json:"bytes"`
	Input         string `json:"input"`
	Prefix        string `json:"prefix"`
	CompletedAt   string `json:"completed_at"` // RFC 3339
	DurationMs    int64  `json:"duration_ms"`
}

// Adapter publishes day completion events to a downstream system.
// Implementations are reused across all boundaries of one run.
type Adapter interface {
	// Publish sends a day completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *DayCompletedEvent) error

	// Name identifies the adapter in logs and counters.
	Name() string

	// Close releases adapter resources.
	Close() error
}

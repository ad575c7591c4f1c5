// Package history journals lifecycle events (installs, starts, stops,
// deploys) to pluggable sinks. Delivery is best-effort: a failing sink must
// never fail the operation that produced the event.
package history

import (
	"context"
	"log/slog"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventInstall EventType = "install"
	EventStart   EventType = "start"
	EventStop    EventType = "stop"
	EventDeploy  EventType = "deploy"
	EventFail    EventType = "fail"
)

// Event is one journal entry.
type Event struct {
	Type       EventType `json:"type"`
	Service    string    `json:"service,omitempty"`
	Host       string    `json:"host,omitempty"`
	PID        int       `json:"pid,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink is a destination for lifecycle events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. Used when no journal DSN is configured.
type Nop struct{}

func (Nop) Send(context.Context, Event) error { return nil }
func (Nop) Close() error                      { return nil }

// Record delivers e to sink, stamping OccurredAt when unset. Delivery
// failures are logged at warn level, never propagated. A nil sink drops the
// event.
func Record(ctx context.Context, sink Sink, logger *slog.Logger, e Event) {
	if sink == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if err := sink.Send(ctx, e); err != nil && logger != nil {
		logger.Warn("history event not delivered",
			"type", string(e.Type), "service", e.Service, "error", err)
	}
}

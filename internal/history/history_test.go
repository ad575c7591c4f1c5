package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type captureSink struct {
	events []Event
	fail   error
}

func (c *captureSink) Send(_ context.Context, e Event) error {
	if c.fail != nil {
		return c.fail
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) Close() error { return nil }

func TestRecordStampsOccurredAt(t *testing.T) {
	sink := &captureSink{}
	Record(context.Background(), sink, nil, Event{Type: EventStart, Service: "gateway"})
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	if sink.events[0].OccurredAt.IsZero() {
		t.Fatal("OccurredAt not stamped")
	}
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	sink := &captureSink{}
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	Record(context.Background(), sink, nil, Event{Type: EventStop, Service: "edge-api", OccurredAt: ts})
	if !sink.events[0].OccurredAt.Equal(ts) {
		t.Fatalf("timestamp overwritten: %v", sink.events[0].OccurredAt)
	}
}

func TestRecordNilSinkIsNoop(t *testing.T) {
	// must not panic
	Record(context.Background(), nil, slog.Default(), Event{Type: EventDeploy})
}

func TestRecordLogsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := &captureSink{fail: errors.New("sink down")}
	Record(context.Background(), sink, logger, Event{Type: EventStart, Service: "gateway"})
	if !strings.Contains(buf.String(), "history event not delivered") {
		t.Fatalf("delivery failure not logged: %q", buf.String())
	}
}

func TestNopSink(t *testing.T) {
	var s Sink = Nop{}
	if err := s.Send(context.Background(), Event{Type: EventStart}); err != nil {
		t.Fatalf("nop send: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("nop close: %v", err)
	}
}

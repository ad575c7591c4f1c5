package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/edgeup/internal/history"
)

func TestSQLiteSink_FileRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	ctx := context.Background()
	events := []history.Event{
		{Type: history.EventStart, Service: "gateway", Host: "edge-1", PID: 4242, OccurredAt: time.Now().UTC()},
		{Type: history.EventStop, Service: "gateway", Host: "edge-1", PID: 4242, OccurredAt: time.Now().UTC()},
		{Type: history.EventDeploy, Host: "edge-1", Detail: "port 50017", OccurredAt: time.Now().UTC()},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Failed to send %s event: %v", e.Type, err)
		}
	}

	var count int
	row := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lifecycle_history WHERE host = ?", "edge-1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != len(events) {
		t.Fatalf("expected %d rows, got %d", len(events), count)
	}

	var event, service string
	row = sink.db.QueryRowContext(ctx,
		"SELECT event, service FROM lifecycle_history WHERE pid = ? LIMIT 1", 4242)
	if err := row.Scan(&event, &service); err != nil {
		t.Fatalf("Failed to read back event: %v", err)
	}
	if service != "gateway" {
		t.Fatalf("unexpected service %q", service)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	e := history.Event{
		Type:       history.EventInstall,
		Host:       "local",
		Detail:     "layout created",
		OccurredAt: time.Now().UTC(),
	}
	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}
}

func TestSQLiteSink_EmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("empty DSN accepted")
	}
}

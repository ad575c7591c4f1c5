package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/edgeup"
)

// This example opens a SQLite-backed journal sink and records a few
// lifecycle events, the same way the supervisor does after each state
// change. Set EDGEUP_HISTORY_DSN to try another backend (postgres://...,
// clickhouse://..., opensearch://...).
func main() {
	dsn := os.Getenv("EDGEUP_HISTORY_DSN")
	if dsn == "" {
		dsn = "sqlite://" + filepath.Join(os.TempDir(), "edgeup-journal.db")
	}

	sink, err := edgeup.NewHistorySink(dsn)
	if err != nil {
		panic(err)
	}
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	events := []edgeup.HistoryEvent{
		{Type: "start", Service: "gateway", Host: "local", PID: 4242, OccurredAt: time.Now().UTC()},
		{Type: "stop", Service: "gateway", Host: "local", PID: 4242, OccurredAt: time.Now().UTC()},
	}
	for _, ev := range events {
		if err := sink.Send(ctx, ev); err != nil {
			panic(err)
		}
	}
	fmt.Println("recorded", len(events), "events via", dsn)
}

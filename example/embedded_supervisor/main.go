package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/edgeup"
)

// This example embeds the supervisor to run a two-service chain of plain
// shell commands, prints the chain status, then tears it down in reverse
// order.
func main() {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("edgeup-demo-%d", time.Now().UnixNano()))
	_ = os.MkdirAll(dir, 0o750)

	services := []edgeup.Service{
		{
			Name:        "backend",
			BinaryPath:  "/bin/sh",
			LaunchArgs:  []string{"-c", "while true; do echo backend; sleep 5; done"},
			LogPath:     filepath.Join(dir, "backend.log"),
			PIDFilePath: filepath.Join(dir, "backend.pid"),
			StartOrder:  0,
		},
		{
			Name:        "frontend",
			BinaryPath:  "/bin/sh",
			LaunchArgs:  []string{"-c", "while true; do echo frontend; sleep 5; done"},
			LogPath:     filepath.Join(dir, "frontend.log"),
			PIDFilePath: filepath.Join(dir, "frontend.pid"),
			StartOrder:  1,
		},
	}

	sink, err := edgeup.NewHistorySink(os.Getenv("EDGEUP_HISTORY_DSN"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = sink.Close() }()

	sup, err := edgeup.NewSupervisor(services, edgeup.SupervisorOptions{}, nil, sink)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	if err := sup.StartAll(ctx); err != nil {
		panic(err)
	}

	b, _ := json.MarshalIndent(sup.StatusAll(), "", "  ")
	fmt.Println(string(b))

	if err := sup.StopAll(ctx); err != nil {
		panic(err)
	}
	fmt.Println("chain stopped; logs under", dir)
}

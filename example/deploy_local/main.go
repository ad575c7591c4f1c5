package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loykin/edgeup"
)

// This example drives the deploy flow programmatically against the local
// host: probe the install root, install if absent, then make sure the
// whole chain runs. It needs the edgeup binary on PATH, since the flow
// shells out to `edgeup setup` and `edgeup start all`.
func main() {
	root := os.Getenv("EDGEUP_INSTALL_ROOT")
	if root == "" {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, ".edgeup")
	}

	sink, err := edgeup.NewHistorySink(os.Getenv("EDGEUP_HISTORY_DSN"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = sink.Close() }()

	orc, err := edgeup.NewOrchestrator(edgeup.OrchestratorConfig{
		Host:        "local",
		InstallRoot: root,
	}, edgeup.NewLocalExecutor(), nil, nil, sink)
	if err != nil {
		panic(err)
	}

	if err := orc.Deploy(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println("chain deployed and running under", root)
}

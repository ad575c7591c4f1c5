package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/loykin/edgeup"
)

// This example mounts the edgeup agent surface inside an existing echo
// server, so a host application can expose /api/exec next to its own routes.
func main() {
	e := echo.New()

	token := os.Getenv("EDGEUP_AGENT_TOKEN")
	if token == "" {
		log.Println("EDGEUP_AGENT_TOKEN not set; exec endpoint disabled")
	}

	h := edgeup.NewAgentHandler(token, nil)

	// Mount under /api using Echo's WrapHandler
	e.Any("/api", echo.WrapHandler(h))
	e.Any("/api/*", echo.WrapHandler(h))
	e.GET("/metrics", echo.WrapHandler(edgeup.MetricsHandler()))

	log.Println("starting echo server on :8080 with the agent mounted under /api")
	if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// Package agent serves the remote-execution channel on the edge host: one
// token-authenticated exec endpoint, a health probe, and the Prometheus
// metrics endpoint.
package agent

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/remote"
)

// Router provides the embeddable HTTP surface of the agent.
// Endpoints:
//
//	POST /api/exec    body: {"command": "..."} (bearer token required)
//	GET  /api/health
//	GET  /metrics
type Router struct {
	token  string
	logger *slog.Logger
}

// NewRouter builds the agent surface. An empty token disables the exec
// endpoint entirely rather than serving it unauthenticated.
func NewRouter(token string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{token: token, logger: logger}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server or mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())

	api := g.Group("/api")
	api.GET("/health", r.handleHealth)
	if r.token != "" {
		api.POST("/exec", requireToken(r.token), r.handleExec)
	}
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

type execRequest struct {
	Command string `json:"command"`
}

type execResponse struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

func (r *Router) handleExec(c *gin.Context) {
	var req execRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Command == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command required"})
		return
	}

	began := time.Now()
	stdout, stderr, code, err := remote.RunShell(c.Request.Context(), req.Command)
	if err != nil {
		r.logger.Error("exec could not run command", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	r.logger.Info("exec", "exit_code", code, "took", time.Since(began).Truncate(time.Millisecond))
	c.JSON(http.StatusOK, execResponse{Stdout: stdout, Stderr: stderr, ExitCode: code})
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/tlsutil"
)

// AgentConfig configures the HTTP channel to an edgeup agent.
type AgentConfig struct {
	// BaseURL is the agent endpoint, e.g. "https://edge1:9443/api".
	BaseURL string
	// Token is the bearer credential presented on every request.
	Token string
	// Timeout bounds one command round trip.
	Timeout time.Duration
	// CACert pins the agent's self-signed certificate.
	CACert string
	// Insecure skips TLS verification (lab setups only).
	Insecure bool
}

// AgentExecutor runs commands through the agent's exec endpoint with
// bearer-token authentication.
type AgentExecutor struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAgentExecutor builds the HTTP channel.
func NewAgentExecutor(cfg AgentConfig) (*AgentExecutor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("agent executor: base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := &http.Transport{}
	if cfg.CACert != "" || cfg.Insecure {
		tlsCfg, err := tlsutil.ClientConfig(cfg.CACert, cfg.Insecure)
		if err != nil {
			return nil, fmt.Errorf("agent executor: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}
	return &AgentExecutor{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}, nil
}

type execRequest struct {
	Command string `json:"command"`
}

type execResponse struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Run posts the command to the agent. The host argument is informational
// (the channel is already bound to one agent); identity overrides the
// configured token when non-empty.
func (a *AgentExecutor) Run(ctx context.Context, _ string, identity, command string) (string, error) {
	body, err := json.Marshal(execRequest{Command: command})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/exec", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	token := a.token
	if identity != "" {
		token = identity
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	began := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		metrics.IncRemoteCommand("error")
		return "", fmt.Errorf("agent %s: %v: %w", a.baseURL, err, ErrConnectionFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.IncRemoteCommand("denied")
		return "", fmt.Errorf("agent %s rejected the credential: %w", a.baseURL, ErrAuthenticationFailed)
	case resp.StatusCode != http.StatusOK:
		metrics.IncRemoteCommand("error")
		return "", fmt.Errorf("agent %s returned %s: %w", a.baseURL, resp.Status, ErrConnectionFailed)
	}

	var out execResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.IncRemoteCommand("error")
		return "", fmt.Errorf("agent %s sent an unreadable reply: %v: %w", a.baseURL, err, ErrConnectionFailed)
	}
	if out.ExitCode != 0 {
		metrics.IncRemoteCommand("failed")
		metrics.ObserveRemoteCommand("failed", time.Since(began).Seconds())
		return out.Stdout, &CommandError{Command: command, ExitCode: out.ExitCode, Stderr: stderrTail(strings.TrimSpace(out.Stderr))}
	}
	metrics.IncRemoteCommand("ok")
	metrics.ObserveRemoteCommand("ok", time.Since(began).Seconds())
	return out.Stdout, nil
}

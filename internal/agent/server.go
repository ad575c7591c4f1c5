package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/loykin/edgeup/internal/tlsutil"
)

// ServerConfig configures the standalone agent server.
type ServerConfig struct {
	Listen  string
	Token   string
	TLSCert string
	TLSKey  string
}

// NewServer builds the agent's http.Server with conservative timeouts.
// When a certificate pair is configured, the server expects ServeTLS.
func NewServer(cfg ServerConfig, handler http.Handler) (*http.Server, error) {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Exec requests can legitimately run long.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		tlsCfg, err := tlsutil.ServerConfig(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = tlsCfg
	}
	return srv, nil
}

// Serve runs the server until ctx is cancelled, then shuts it down with a
// bounded grace period.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if srv.TLSConfig != nil && len(srv.TLSConfig.Certificates) > 0 {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

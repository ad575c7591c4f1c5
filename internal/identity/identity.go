// Package identity handles the tenant credential file and the
// identity-introspection boundary. The token exchange that populates the
// file is an external collaborator; edgeup only stores and reads it.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credential authenticates against the agent channel and names the tenant.
type Credential struct {
	Token   string `json:"token"`
	Subject string `json:"subject,omitempty"`
}

// DefaultPath is the credential location under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".edgeup", "credential.json")
	}
	return filepath.Join(home, ".edgeup", "credential.json")
}

// Load reads the credential file at path.
func Load(path string) (Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Credential{}, fmt.Errorf("read credential: %w", err)
	}
	var c Credential
	if err := json.Unmarshal(b, &c); err != nil {
		return Credential{}, fmt.Errorf("parse credential %s: %w", path, err)
	}
	if c.Token == "" {
		return Credential{}, fmt.Errorf("credential %s has no token", path)
	}
	return c, nil
}

// Save writes the credential 0600 under a 0700 parent directory. The file
// is replaced atomically via a temp file so a reader never observes a
// partial credential.
func Save(path string, c Credential) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

// Introspector resolves the tenant subject behind a credential. This is
// the external identity-introspection boundary.
type Introspector interface {
	Subject(ctx context.Context) (string, error)
}

// Static returns a fixed subject, typically from configuration.
type Static string

func (s Static) Subject(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("no subject configured")
	}
	return string(s), nil
}

// FromCredential reads the subject recorded in the credential file on
// every call, so a refreshed file is picked up without restarting.
type FromCredential string

func (p FromCredential) Subject(context.Context) (string, error) {
	c, err := Load(string(p))
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", fmt.Errorf("credential %s has no subject", string(p))
	}
	return c.Subject, nil
}

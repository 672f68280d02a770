// Package session persists the single bearer credential and the console
// configuration.
//
// The credential file is the only durable client-side state; drafts and
// cache counters are memory-only and lost when the process exits. Its
// absence or expiry routes the operator to the login flow.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCredential means no bearer token is stored: the operator must log in.
var ErrNoCredential = errors.New("not logged in")

// Store holds the bearer credential in a file.
type Store struct {
	path string
}

// NewStore creates a credential store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultTokenPath is the credential location under the user config dir.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "rcoop", "token"), nil
}

// Load returns the stored token, or ErrNoCredential when absent.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", ErrNoCredential
	}
	return tok, nil
}

// Save writes the token, creating the parent directory if needed.
// The file is operator-private.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

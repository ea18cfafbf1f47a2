package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenStore abstracts persistence for account credential state.
type TokenStore interface {
	Load() (credentialState, error)
	Save(credentialState) error
	Clear() error
}

type credentialState struct {
	Email          string    `json:"email"`
	Token          string    `json:"token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// FileTokenStore writes credential state to a JSON file on disk.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore builds a FileTokenStore rooted at the provided path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads credential state from disk. A missing file resolves to an empty state.
func (s *FileTokenStore) Load() (credentialState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return credentialState{}, nil
		}
		return credentialState{}, fmt.Errorf("read auth state: %w", err)
	}

	var state credentialState
	if err := json.Unmarshal(data, &state); err != nil {
		return credentialState{}, fmt.Errorf("decode auth state: %w", err)
	}
	return state, nil
}

// Save persists credential state to disk with restricted permissions.
func (s *FileTokenStore) Save(state credentialState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure auth state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write auth state: %w", err)
	}
	return nil
}

// Clear removes the credential file. A missing file is not an error.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove auth state: %w", err)
	}
	return nil
}

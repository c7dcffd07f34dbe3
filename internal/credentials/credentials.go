// Package credentials stores one API key per provider.
//
// Keys are kept in plain text in the settings store; they are only as safe as
// the store itself.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/kv"
)

// Store gets and sets provider credentials.
type Store struct {
	kv kv.Store
	// env maps a provider to the environment variable consulted when nothing
	// is stored.
	env map[catalog.ProviderID]string
}

// New returns a credential store over the given key-value store.
func New(store kv.Store, env map[catalog.ProviderID]string) *Store {
	return &Store{kv: store, env: env}
}

// Get returns the trimmed credential for the provider, and false when none
// is set.
func (s *Store) Get(ctx context.Context, provider catalog.ProviderID) (string, bool, error) {
	v, err := s.kv.Get(ctx, kv.CredentialKey(string(provider)))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", false, fmt.Errorf("could not read %s credential: %w", provider, err)
	}
	if v = strings.TrimSpace(v); v != "" {
		return v, true, nil
	}
	if name := s.env[provider]; name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Set stores the trimmed credential. An empty value clears it.
func (s *Store) Set(ctx context.Context, provider catalog.ProviderID, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Clear(ctx, provider)
	}
	if err := s.kv.Set(ctx, kv.CredentialKey(string(provider)), value); err != nil {
		return fmt.Errorf("could not save %s credential: %w", provider, err)
	}
	return nil
}

// Clear removes the stored credential.
func (s *Store) Clear(ctx context.Context, provider catalog.ProviderID) error {
	if err := s.kv.Delete(ctx, kv.CredentialKey(string(provider))); err != nil {
		return fmt.Errorf("could not clear %s credential: %w", provider, err)
	}
	return nil
}

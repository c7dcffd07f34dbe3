// Package kv is the small key-value store skim persists its settings in:
// credentials, custom models and the last used model.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store. Writes return only once the value is
// durable.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keys.
const (
	KeyCustomModels = "custom-models"
	KeyLastModel    = "last-model"
	keyCredential   = "credential."
)

// CredentialKey is the key holding the credential of the given provider.
func CredentialKey(provider string) string {
	return keyCredential + provider
}

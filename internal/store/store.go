// Package store provides the persistence port for PromptLab state.
//
// State is persisted as whole JSON documents under namespaced keys, so the
// ledger and the template engine can be constructed with any implementation
// (SQLite in production, memory under test).
package store

import "context"

// Namespaced store keys for the two independently persisted collections.
const (
	KeyExperiments = "promptlab.experiments"
	KeyTemplates   = "promptlab.templates"
)

// Store persists JSON documents by namespaced key.
type Store interface {
	// Load unmarshals the document stored under key into v. Returns
	// (false, nil) when the key has never been saved.
	Load(ctx context.Context, key string, v any) (bool, error)

	// Save marshals v and stores it under key, replacing any prior document.
	Save(ctx context.Context, key string, v any) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing storage.
	Close() error
}

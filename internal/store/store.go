// Package store provides storage backends for interview session snapshots.
//
// The core treats a snapshot as opaque: an id plus a JSON-encoded state blob.
// Backends exist for in-memory use (tests), SQLite, and PostgreSQL.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valuecompass/valuecompass/internal/models"
)

// Store is the session persistence collaborator.
type Store interface {
	SaveSession(snapshot models.SessionSnapshot) error
	GetSession(id string) (*models.SessionSnapshot, error)
	ListSessionIDs() ([]string, error)
	DeleteSession(id string) error
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN. For SQLite this is a file path; for
// Postgres a connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN string as "postgres" or "sqlite".
// Postgres DSNs use the postgres:// scheme or key=value form; anything
// else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a map-backed Store for tests and ephemeral runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionSnapshot
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.SessionSnapshot)}
}

// SaveSession inserts or updates a snapshot.
func (s *InMemoryStore) SaveSession(snapshot models.SessionSnapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.sessions[snapshot.ID]; ok {
		snapshot.CreatedAt = existing.CreatedAt
	} else if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}
	snapshot.UpdatedAt = now
	s.sessions[snapshot.ID] = snapshot
	return nil
}

// GetSession returns the snapshot for id, or nil when absent.
func (s *InMemoryStore) GetSession(id string) (*models.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

// ListSessionIDs returns all stored session ids, sorted for determinism.
func (s *InMemoryStore) ListSessionIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteSession removes a snapshot. Deleting an absent id is not an error.
func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	return nil
}

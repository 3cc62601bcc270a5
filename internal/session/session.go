// Package session mints session identifiers and coordinates the
// store's ingest/delete/sweep operations behind a small API the HTTP
// layer calls directly.
package session

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/secstrace/secstrace/internal/logging"
	"github.com/secstrace/secstrace/internal/parser"
	"github.com/secstrace/secstrace/internal/store"
)

// Manager owns a Store and the background TTL sweeper.
type Manager struct {
	Store    *store.Store
	registry *parser.Registry
	lg       *logging.Logger

	stop chan struct{}
}

// NewManager builds a Manager over the Store s.
func NewManager(s *store.Store, lg *logging.Logger) *Manager {
	return &Manager{
		Store:    s,
		registry: parser.NewRegistry(),
		lg:       lg,
		stop:     make(chan struct{}),
	}
}

// NewID mints a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Create ingests src as a new session and returns its published meta.
func (m *Manager) Create(extHint, sourceFormat string, src io.Reader) (store.Meta, string, error) {
	id := NewID()
	meta, err := m.Store.Ingest(id, extHint, sourceFormat, src, m.registry)
	if err != nil {
		return store.Meta{}, "", err
	}
	return meta, id, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	return m.Store.Delete(id)
}

// StartSweeper launches the TTL sweeper goroutine; call Stop to shut
// it down during graceful server shutdown.
func (m *Manager) StartSweeper(period, ttl time.Duration) {
	go m.Store.RunSweeper(m.stop, period, ttl, m.lg.Errorf)
}

// Stop halts the sweeper goroutine.
func (m *Manager) Stop() {
	close(m.stop)
}

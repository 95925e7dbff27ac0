// File: internal/browser/session/manager.go
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/domain"
)

// Store is the slice of the session registry the manager needs. Everything
// after the initial index lookup is keyed by the identity's stable ID.
type Store interface {
	IdentityAt(index int) (domain.Identity, error)
	PutSession(identityID string, s *Session) error
	TakeSession(identityID string) (*Session, bool)
	SetState(identityID string, st domain.SessionState)
}

// Manager attaches identities to their browsers and releases them.
type Manager struct {
	store    Store
	attacher Attacher
	browser  config.BrowserConfig
	logger   *zap.Logger
}

// NewManager creates a connection manager.
func NewManager(store Store, attacher Attacher, browser config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		attacher: attacher,
		browser:  browser,
		logger:   logger.Named("connections"),
	}
}

// Connect attaches the identity at index to the browser on BasePort+index.
// An existing session for that identity is released first.
func (m *Manager) Connect(ctx context.Context, index int) (*Session, error) {
	id, err := m.store.IdentityAt(index)
	if err != nil {
		return nil, err
	}
	endpoint, port := m.browser.Endpoint(index)
	log := m.logger.With(zap.Int("index", index), zap.String("identity", id.Name), zap.Int("port", port))

	if old, ok := m.store.TakeSession(id.ID); ok {
		log.Info("Releasing previous session before reconnecting.")
		old.Close()
	}

	m.store.SetState(id.ID, domain.StateConnecting)
	log.Info("Connecting to browser.", zap.String("endpoint", endpoint))

	att, err := m.attacher.Attach(ctx, endpoint)
	if err != nil {
		m.store.SetState(id.ID, domain.StateFailed)
		log.Warn("Connect failed.", zap.Error(err))
		return nil, fmt.Errorf("identity %q: %w", id.Name, err)
	}

	s := New(id.ID, endpoint, port, att.TargetID, att.Page, att.Close)
	if err := m.store.PutSession(id.ID, s); err != nil {
		// Identity was deleted while attaching.
		s.Close()
		return nil, err
	}
	m.store.SetState(id.ID, domain.StateConnected)

	if want := m.browser.TargetURL; want != "" && !strings.HasPrefix(s.URL(), want) {
		log.Warn("Attached page is not the reservation page.", zap.String("url", s.URL()), zap.String("expected", want))
	}
	log.Info("Connected.", zap.String("url", s.URL()))
	return s, nil
}

// Disconnect releases the session of the identity at index. The identity
// ends in Disconnected whether or not a session existed.
func (m *Manager) Disconnect(index int) error {
	id, err := m.store.IdentityAt(index)
	if err != nil {
		return err
	}
	m.Release(id.ID)
	m.logger.Info("Disconnected.", zap.Int("index", index), zap.String("identity", id.Name))
	return nil
}

// Release closes any session held for identityID.
func (m *Manager) Release(identityID string) {
	if s, ok := m.store.TakeSession(identityID); ok {
		s.Close()
	}
	m.store.SetState(identityID, domain.StateDisconnected)
}

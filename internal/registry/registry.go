// File: internal/registry/registry.go
//
// Package registry holds the identity roster together with each identity's
// live session and lifecycle state. Entries are keyed by the identity's
// stable ID; roster positions are an ordered projection over those IDs, so
// deleting an identity shifts every later position down by one while the
// sessions themselves never move.
package registry

import (
	"fmt"
	"sync"

	"github.com/xkilldash9x/notefill/internal/browser/session"
	"github.com/xkilldash9x/notefill/internal/domain"
)

type entry struct {
	identity domain.Identity
	state    domain.SessionState
	session  *session.Session
}

// Entry is a point-in-time view of one roster position.
type Entry struct {
	Index    int
	Identity domain.Identity
	State    domain.SessionState
	Session  *session.Session
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

var _ session.Store = (*Registry)(nil)

// New builds a registry over the given roster. Identities without an ID get one.
func New(ids []domain.Identity) (*Registry, error) {
	r := &Registry{entries: make(map[string]*entry, len(ids))}
	for _, id := range ids {
		if _, err := r.Add(id); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Len returns the roster size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Identities returns the roster in display order.
func (r *Registry) Identities() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Identity, len(r.order))
	for i, key := range r.order {
		out[i] = r.entries[key].identity
	}
	return out
}

func (r *Registry) at(index int) (*entry, error) {
	if index < 0 || index >= len(r.order) {
		return nil, fmt.Errorf("%w: index %d (roster has %d)", domain.ErrIdentityNotFound, index, len(r.order))
	}
	return r.entries[r.order[index]], nil
}

// IdentityAt returns the identity at a roster position.
func (r *Registry) IdentityAt(index int) (domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.at(index)
	if err != nil {
		return domain.Identity{}, err
	}
	return e.identity, nil
}

// IndexOf returns the current position of a stable ID.
func (r *Registry) IndexOf(identityID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, key := range r.order {
		if key == identityID {
			return i, true
		}
	}
	return -1, false
}

// Add appends an identity and returns its position.
func (r *Registry) Add(id domain.Identity) (int, error) {
	id = id.WithID()
	if err := id.Validate(); err != nil {
		return -1, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[id.ID]; dup {
		return -1, fmt.Errorf("identity id %q already registered", id.ID)
	}
	r.entries[id.ID] = &entry{identity: id}
	r.order = append(r.order, id.ID)
	return len(r.order) - 1, nil
}

// Update replaces the identity data at index. The stable ID is kept.
func (r *Registry) Update(index int, id domain.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.at(index)
	if err != nil {
		return err
	}
	id.ID = e.identity.ID
	e.identity = id
	return nil
}

// -- position-keyed session access --

// Get returns the session at index, if any.
func (r *Registry) Get(index int) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.at(index)
	if err != nil || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// Set stores s at index, replacing any previous session without closing it.
func (r *Registry) Set(index int, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.at(index)
	if err != nil {
		return err
	}
	e.session = s
	return nil
}

// Remove takes the session at index out of the registry. The caller closes it.
func (r *Registry) Remove(index int) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.at(index)
	if err != nil || e.session == nil {
		return nil, false
	}
	s := e.session
	e.session = nil
	return s, true
}

// State returns the lifecycle state at index. Unknown positions read as
// Disconnected.
func (r *Registry) State(index int) domain.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.at(index)
	if err != nil {
		return domain.StateDisconnected
	}
	return e.state
}

// SetStateAt sets the lifecycle state at index.
func (r *Registry) SetStateAt(index int, st domain.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.at(index)
	if err != nil {
		return err
	}
	e.state = st
	return nil
}

// -- ID-keyed access used by the connection manager --

// PutSession stores s for identityID.
func (r *Registry) PutSession(identityID string, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identityID]
	if !ok {
		return fmt.Errorf("%w: id %s", domain.ErrIdentityNotFound, identityID)
	}
	e.session = s
	return nil
}

// TakeSession removes and returns the session of identityID.
func (r *Registry) TakeSession(identityID string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identityID]
	if !ok || e.session == nil {
		return nil, false
	}
	s := e.session
	e.session = nil
	return s, true
}

// SessionFor returns the session of identityID.
func (r *Registry) SessionFor(identityID string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identityID]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// SetState sets the state of identityID. Unknown IDs are ignored, since the
// identity may have been deleted while an operation on it finished.
func (r *Registry) SetState(identityID string, st domain.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[identityID]; ok {
		e.state = st
	}
}

// StateFor returns the state of identityID.
func (r *Registry) StateFor(identityID string) domain.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[identityID]; ok {
		return e.state
	}
	return domain.StateDisconnected
}

// -- structural edits --

// ReindexAfterDelete drops position k, whose session must already have been
// removed. Positions below k are unchanged and every position above k moves
// down by one, carrying its session and state with it.
func (r *Registry) ReindexAfterDelete(k int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reindexLocked(k)
}

func (r *Registry) reindexLocked(k int) error {
	e, err := r.at(k)
	if err != nil {
		return err
	}
	if e.session != nil {
		return fmt.Errorf("%w: index %d", domain.ErrSessionStillHeld, k)
	}
	delete(r.entries, r.order[k])
	r.order = append(r.order[:k], r.order[k+1:]...)
	return nil
}

// DeleteIdentity removes position k and compacts the roster in one step. Any
// session still registered for k is returned for the caller to close.
func (r *Registry) DeleteIdentity(k int) (domain.Identity, *session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.at(k)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	held := e.session
	e.session = nil
	if err := r.reindexLocked(k); err != nil {
		e.session = held
		return domain.Identity{}, nil, err
	}
	return e.identity, held, nil
}

// Snapshot returns every position in order.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.order))
	for i, key := range r.order {
		e := r.entries[key]
		out[i] = Entry{Index: i, Identity: e.identity, State: e.state, Session: e.session}
	}
	return out
}

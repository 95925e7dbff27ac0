// File: internal/browser/session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/notefill/internal/browser/page"
)

// Session is a live attachment to one identity's browser tab. Closing it
// detaches the automation channel; the tab and browser stay open.
type Session struct {
	ID         string
	IdentityID string
	Endpoint   string
	Port       int
	TargetID   string
	AttachedAt time.Time

	page page.Page

	closeOnce sync.Once
	closeFn   func()
}

// New wraps an attachment. closeFn may be nil.
func New(identityID, endpoint string, port int, targetID string, p page.Page, closeFn func()) *Session {
	return &Session{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Endpoint:   endpoint,
		Port:       port,
		TargetID:   targetID,
		AttachedAt: time.Now(),
		page:       p,
		closeFn:    closeFn,
	}
}

// Page returns the automation surface of the attached tab.
func (s *Session) Page() page.Page { return s.page }

// URL is the page address at attach time.
func (s *Session) URL() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

// Close releases the attachment. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
}

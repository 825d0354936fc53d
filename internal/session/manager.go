package session

import (
	"sync"
	"time"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

// DefaultRetention bounds how long an ended session id is refused when its
// expiry is unknown. It should be at least the token lifetime.
const DefaultRetention = 24 * time.Hour

type entry struct {
	sess      *Session
	expiresAt time.Time
	timer     *time.Timer
}

// Manager keeps one Session per auth session id. A session ends on
// sign-out, on an Expired event, or when its expiry time passes with no
// request at all. Ended ids are refused until they could no longer be
// presented with a valid token.
type Manager struct {
	Retention time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	ended    map[string]time.Time
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		Retention: DefaultRetention,
		sessions:  make(map[string]*entry),
		ended:     make(map[string]time.Time),
		now:       time.Now,
	}
}

// Resolve returns the session for sessionID, authenticated as user. It
// reports false for a session that has already ended or expired. A non-zero
// expiresAt arms the end of the session at that time.
func (m *Manager) Resolve(sessionID string, user auth.User, expiresAt time.Time) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, gone := m.ended[sessionID]; gone {
		return nil, false
	}
	if !expiresAt.IsZero() && !m.now().Before(expiresAt) {
		return nil, false
	}

	e, ok := m.sessions[sessionID]
	if !ok {
		e = &entry{sess: New()}
		m.sessions[sessionID] = e
	}
	if e.timer == nil && !expiresAt.IsZero() {
		e.expiresAt = expiresAt
		e.timer = time.AfterFunc(expiresAt.Sub(m.now()), func() {
			logger.Sugar.Infof("Session %s reached its expiry", sessionID)
			m.End(sessionID)
		})
	}
	// Signing in under m.mu orders it before any End of the same id.
	e.sess.SignIn(user)
	return e.sess, true
}

// End signs the session out and forgets it. Ending an unknown or already
// ended id only records it as ended.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	now := m.now()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)

	until := now.Add(m.Retention)
	if ok && !e.expiresAt.IsZero() {
		until = e.expiresAt
		e.timer.Stop()
	}
	if prev, seen := m.ended[sessionID]; !seen || prev.Before(until) {
		m.ended[sessionID] = until
	}
	for id, t := range m.ended {
		if t.Before(now) {
			delete(m.ended, id)
		}
	}
	m.mu.Unlock()

	if ok {
		e.sess.SignOut()
		logger.Sugar.Infof("Session %s ended, story cache discarded", sessionID)
	}
}

// HandleAuthEvent is subscribed to the auth provider.
func (m *Manager) HandleAuthEvent(ev auth.Event) {
	switch ev.Kind {
	case auth.EventSignedOut, auth.EventExpired:
		m.End(ev.SessionID)
	case auth.EventSignedIn:
		if ev.User != nil {
			m.Resolve(ev.SessionID, *ev.User, ev.ExpiresAt)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

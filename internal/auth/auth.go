// Package auth is the authentication provider the story core relies on for
// identity. The provider's user id is the owner key of every story.
package auth

import (
	"context"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
	EventExpired   EventKind = "EXPIRED"
)

// Event reports a session-state change. User is nil once the session is
// anonymous. ExpiresAt is set on SignedIn: the session ends then even if no
// further request arrives.
type Event struct {
	Kind      EventKind
	SessionID string
	User      *User
	ExpiresAt time.Time
}

// Identity is what a valid token resolves to.
type Identity struct {
	User      User
	SessionID string
	ExpiresAt time.Time
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Provider interface {
	SignUp(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, sessionID string) error
	// CurrentUser resolves a bearer token to its user and session id.
	CurrentUser(ctx context.Context, token string) (User, string, error)
	// Authenticate is CurrentUser that also reports when the session expires.
	Authenticate(ctx context.Context, token string) (Identity, error)
	// Subscribe registers fn for every session-state change and returns a
	// function that removes it.
	Subscribe(fn func(Event)) (cancel func())
}

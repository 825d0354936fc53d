package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

const minPasswordLength = 6

// Service is the Provider backed by a UserStore, a SessionStore and signed tokens.
type Service struct {
	users    UserStore
	sessions SessionStore
	tokens   *TokenIssuer
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

var _ Provider = (*Service)(nil)

func NewService(users UserStore, sessions SessionStore, tokens *TokenIssuer, ttl time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[int]func(Event)),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, email, password string) (User, error) {
	const op = "auth.SignUp"
	email = normaliseEmail(email)

	var fields []string
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, "email")
	}
	if len(password) < minPasswordLength {
		fields = append(fields, "password")
	}
	if len(fields) > 0 {
		return User{}, apperr.Validation(op, fields, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	record := UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, record); err != nil {
		return User{}, err
	}
	logger.Sugar.Infof("User %s signed up", record.ID)
	return User{ID: record.ID, Email: record.Email}, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	const op = "auth.SignIn"
	record, err := s.users.GetUserByEmail(ctx, normaliseEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		return Session{}, apperr.Unauthenticated(op, "invalid email or password")
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperr.Unauthenticated(op, "invalid email or password")
	}

	user := User{ID: record.ID, Email: record.Email}
	sessionID := uuid.NewString()
	expiresAt := s.now().Add(s.ttl)
	if err := s.sessions.Save(ctx, sessionID, user.ID, s.ttl); err != nil {
		return Session{}, err
	}
	token, err := s.tokens.Issue(user, sessionID, expiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, sessionID)
		return Session{}, err
	}

	s.publish(Event{Kind: EventSignedIn, SessionID: sessionID, User: &user, ExpiresAt: expiresAt})
	return Session{Token: token, SessionID: sessionID, User: user, ExpiresAt: expiresAt}, nil
}

func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.publish(Event{Kind: EventSignedOut, SessionID: sessionID})
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (User, string, error) {
	id, err := s.Authenticate(ctx, token)
	if err != nil {
		return User{}, "", err
	}
	return id.User, id.SessionID, nil
}

// Authenticate is CurrentUser plus the moment the session ends on its own.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	const op = "auth.CurrentUser"
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims != nil && claims.ID != "" {
			s.expire(ctx, claims.ID)
		}
		return Identity{}, apperr.Unauthenticated(op, "invalid or expired token")
	}

	userID, err := s.sessions.Lookup(ctx, claims.ID)
	if errors.Is(err, ErrSessionNotFound) {
		s.expire(ctx, claims.ID)
		return Identity{}, apperr.Unauthenticated(op, "session expired")
	}
	if err != nil {
		return Identity{}, err
	}
	if userID != claims.Subject {
		return Identity{}, apperr.Unauthenticated(op, "token does not match session")
	}

	id := Identity{User: User{ID: claims.Subject, Email: claims.Email}, SessionID: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (s *Service) expire(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Sugar.Warnf("Failed to drop expired session %s: %v", sessionID, err)
	}
	s.publish(Event{Kind: EventExpired, SessionID: sessionID})
}

func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// publish calls subscribers synchronously, outside the lock.
func (s *Service) publish(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

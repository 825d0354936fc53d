package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts. CreateUser fails with a Conflict error when
// the email is taken; GetUserByEmail fails with NotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
}

type PostgresUserStore struct {
	DB *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{DB: db}
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u UserRecord) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO app_users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperr.Conflict("UserStore.CreateUser", "email already registered")
		}
		logger.Sugar.Errorf("Failed to create user %s: %v", u.Email, err)
	}
	return err
}

func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	var u UserRecord
	err := s.DB.QueryRowContext(ctx, "SELECT id, email, password_hash, created_at FROM app_users WHERE email = $1", email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, apperr.NotFound("UserStore.GetUserByEmail", "user")
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
	}
	return u, err
}

type MemoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]UserRecord
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byEmail: make(map[string]UserRecord)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return apperr.Conflict("UserStore.CreateUser", "email already registered")
	}
	s.byEmail[u.Email] = u
	return nil
}

func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return UserRecord{}, apperr.NotFound("UserStore.GetUserByEmail", "user")
	}
	return u, nil
}

package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	model "catalog-sync-backend/internal/domains/auth/model"
	"catalog-sync-backend/internal/domains/auth/repository"
)

// Service handles the single-account operator login.
type Service interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Validate(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	adminUser     string
	adminPassword string
	ttl           time.Duration
	sessions      repository.Repository
}

func NewAuthService(adminUser, adminPassword string, ttlHours int, sessions repository.Repository) Service {
	return &authService{
		adminUser:     adminUser,
		adminPassword: adminPassword,
		ttl:           time.Duration(ttlHours) * time.Hour,
		sessions:      sessions,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) != 1 {
		return nil, model.ErrInvalidCredentials
	}
	if !s.passwordMatches(password) {
		return nil, model.ErrInvalidCredentials
	}

	now := time.Now()
	session := &model.Session{
		Token:     uuid.New().String(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	// Opportunistic cleanup; stale rows only waste space.
	_ = s.sessions.DeleteExpired(ctx)

	return session, nil
}

// passwordMatches accepts either a bcrypt hash or, for development setups,
// the plain value in ADMIN_PASSWORD.
func (s *authService) passwordMatches(password string) bool {
	if strings.HasPrefix(s.adminPassword, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.adminPassword), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
}

func (s *authService) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, model.ErrSessionExpired
	}

	return session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

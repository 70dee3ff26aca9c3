package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/dmitrijs2005/medialog/internal/server/auth"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/sessions"
	"github.com/google/uuid"
)

// ErrPasswordRequired is returned by Login for an empty password.
var ErrPasswordRequired = fmt.Errorf("%w: password required", common.ErrorValidation)

// AuthService checks the admin password and manages sessions.
type AuthService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	passwordHash []byte
	jwtSecret    []byte
	sessionTTL   time.Duration
	logger       logging.Logger
	now          func() time.Time
}

// NewAuthService hashes adminPassword once; logins compare against the hash.
func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, adminPassword, secretKey string, sessionTTL time.Duration, logger logging.Logger) (*AuthService, error) {
	hash, err := auth.HashPassword([]byte(adminPassword))
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthService{
		db:           db,
		repomanager:  rm,
		passwordHash: hash,
		jwtSecret:    []byte(secretKey),
		sessionTTL:   sessionTTL,
		logger:       logging.Component(logger, "auth"),
		now:          time.Now,
	}, nil
}

func (s *AuthService) repo() sessions.Repository {
	return s.repomanager.Sessions(conn(s.db))
}

// Login opens a session for the admin password.
func (s *AuthService) Login(ctx context.Context, password string) (*models.Session, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !auth.CheckPassword(s.passwordHash, []byte(password)) {
		return nil, common.ErrorUnauthorized
	}

	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	id := uuid.NewString()

	if err := s.repo().Create(ctx, id, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := auth.GenerateToken(id, s.jwtSecret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.Session{Token: token, ExpiresAt: expiresAt.UTC()}, nil
}

// Verify returns the session ID of a valid, unrevoked token.
func (s *AuthService) Verify(ctx context.Context, token string) (string, error) {
	id, err := auth.SessionIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	session, err := s.repo().Find(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: session revoked", common.ErrorUnauthorized)
		}
		return "", err
	}
	if session.Expired(s.now()) {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired)
	}
	return id, nil
}

// Logout revokes the session behind token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.repo().Delete(ctx, sessionID)
}

// PurgeExpired drops expired sessions.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo().DeleteExpired(ctx, s.now())
}

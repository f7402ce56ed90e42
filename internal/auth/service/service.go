// Package service implements login and token issuance. Account provisioning
// is out of scope; credentials come from the user directory.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"salesops_backend/internal/directory/repository"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users  *repository.Repository
	cfg    config.AuthServiceConfig
	logger *slog.Logger
}

func New(users *repository.Repository, cfg config.AuthServiceConfig, logger *slog.Logger) *Service {
	return &Service{users: users, cfg: cfg, logger: logger}
}

// Session is an issued access token plus the profile the client renders.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        repository.User
}

// Login verifies credentials and issues a short-lived access token. The same
// opaque error covers unknown emails and wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	const op = "auth.Login"

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("login failed", slog.String("reason", "unknown email"))
		return Session{}, apperr.Unauthorized("invalid credentials").WithOp(op)
	}
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindInternal, "load user", err).WithOp(op)
	}

	if !user.IsActive {
		s.logger.Warn("login failed", slog.String("reason", "inactive account"), slog.String("userId", user.ID.String()))
		return Session{}, apperr.Unauthorized("invalid credentials").WithOp(op)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed", slog.String("reason", "bad password"), slog.String("userId", user.ID.String()))
		return Session{}, apperr.Unauthorized("invalid credentials").WithOp(op)
	}

	expiresAt := time.Now().Add(s.cfg.GetAccessTokenTTL())
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"type": "access",
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindInternal, "sign token", err).WithOp(op)
	}

	s.logger.Info("login succeeded", slog.String("userId", user.ID.String()), slog.String("role", user.Role))
	return Session{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// Profile loads the authenticated user's own directory entry.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	const op = "auth.Profile"

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.Unauthorized("account no longer exists").WithOp(op)
	}
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "load user", err).WithOp(op)
	}
	return user, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shoppos/internal/auth"
	"shoppos/internal/domain"
	"shoppos/internal/repository"
)

type Session struct {
	Token     string         `json:"token"`
	Principal auth.Principal `json:"-"`
	User      domain.User    `json:"user"`
}

// EnsureDefaultUser creates the configured bootstrap account if it does not
// exist yet. It is a no-op when no default credentials are configured.
func (s *Service) EnsureDefaultUser(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.authCfg.DefaultEmail))
	if email == "" || s.authCfg.DefaultPassword == "" {
		return nil
	}
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup default user: %w", err)
	}
	hash, err := auth.HashPassword(s.authCfg.DefaultPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateUser(ctx, domain.User{Email: email, PasswordHash: hash}); err != nil {
		return fmt.Errorf("create default user: %w", err)
	}
	s.log.Info("default user created", zap.String("email", email))
	return nil
}

// Login checks credentials and issues a session token. clientKey identifies
// the caller for rate limiting.
func (s *Service) Login(ctx context.Context, email, password, clientKey string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	allowed, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		s.log.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return Session{}, auth.ErrRateLimited
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, err
	}

	token, principal, err := s.issuer.Issue(user)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("user signed in", zap.String("email", user.Email))
	return Session{Token: token, Principal: principal, User: user}, nil
}

func (s *Service) Logout(ctx context.Context, p auth.Principal) error {
	if err := s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return err
	}
	s.log.Info("user signed out", zap.String("email", p.Email))
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	return s.authn.Authenticate(ctx, token)
}

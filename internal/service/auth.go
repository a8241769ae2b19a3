// Package service holds the business rules, between the HTTP handlers and
// the repositories:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → reads/writes the store
//
// Services take repository interfaces, never a concrete store, so tests
// inject in-memory fakes and main.go picks SQLite or Firestore.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

// Frontend paths the login callback redirects to.
const (
	PathDashboard       = "/dashboard"
	PathCompleteProfile = "/complete-profile"
)

// AuthOptions configures AuthService. Zero values are usable: no admins,
// UTC login timestamps, time.Now.
type AuthOptions struct {
	AdminEmails []string
	Location    *time.Location
	Now         func() time.Time
}

// AuthService handles the login callback: it creates or refreshes the user
// record and issues the session token.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (store)
//	                                 ↘ TokenService (JWT)
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	admins map[string]struct{}
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]struct{}, len(opts.AdminEmails))
	for _, e := range opts.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		admins: admins,
		loc:    opts.Location,
		now:    opts.Now,
		logger: logger,
	}
}

// AuthResult bundles what the callback handler needs to finish the login.
type AuthResult struct {
	User  *model.User
	Token string
	IsNew bool
}

// LandingPath is where the frontend should send the user after login:
// admins and returning users go to the dashboard, new users complete their
// profile first.
func (r *AuthResult) LandingPath() string {
	if r.User.IsAdmin || !r.IsNew {
		return PathDashboard
	}
	return PathCompleteProfile
}

// LoginOrRegisterGoogle handles a successful Google OAuth callback.
//
//  1. Derive the admin flag from the configured admin emails.
//  2. First login: create the user with 0 points. Later logins: refresh
//     the login timestamp and admin flag; points are left alone.
//  3. Issue a session token for the user's ID (the Google subject).
//
// It does not touch cookies or redirects; those are HTTP concerns.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil || gUser.Subject == "" {
		return nil, fmt.Errorf("service/auth: Google user must have a subject")
	}

	isAdmin := s.isAdminEmail(gUser.Email)
	loginAt := s.now().In(s.loc)

	result := &AuthResult{}
	existing, err := s.users.GetUserByID(ctx, gUser.Subject)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user := &model.User{
			ID:      gUser.Subject,
			Name:    gUser.Name,
			Email:   gUser.Email,
			Photo:   gUser.Picture,
			Points:  0,
			IsAdmin: isAdmin,
			LoginAt: loginAt,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user %s: %w", gUser.Subject, err)
		}
		result.User = user
		result.IsNew = true

	case err != nil:
		return nil, fmt.Errorf("service/auth: loading user %s: %w", gUser.Subject, err)

	default:
		if err := s.users.RecordLogin(ctx, existing.ID, loginAt, isAdmin); err != nil {
			return nil, fmt.Errorf("service/auth: recording login for %s: %w", existing.ID, err)
		}
		existing.LoginAt = loginAt
		existing.IsAdmin = isAdmin
		result.User = existing
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", result.User.ID),
		slog.Bool("new", result.IsNew),
		slog.Bool("admin", result.User.IsAdmin),
	)

	token, err := s.tokens.Generate(result.User.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", result.User.ID, err)
	}
	result.Token = token

	return result, nil
}

func (s *AuthService) isAdminEmail(email string) bool {
	_, ok := s.admins[normalizeEmail(email)]
	return ok
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

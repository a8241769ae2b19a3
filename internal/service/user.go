package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

// Leaderboard size limits.
const (
	DefaultTopUsers = 10
	MaxTopUsers     = 100
)

// UserService is the user directory: leaderboard, admin listing and
// management, and profile completion.
//
// Admin checks happen here, not in the handlers: every admin-only method
// takes the caller's ID and loads the caller's record to read IsAdmin.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// TopUsers returns the leaderboard. limit is clamped to 1..MaxTopUsers,
// with 0 or less meaning DefaultTopUsers.
func (s *UserService) TopUsers(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultTopUsers
	}
	if limit > MaxTopUsers {
		limit = MaxTopUsers
	}

	users, err := s.users.TopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top users: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, model.LeaderboardEntry{FullName: u.Name, Points: u.Points})
	}
	return entries, nil
}

// AllUsers returns every user, admins included. Admin only.
func (s *UserService) AllUsers(ctx context.Context, callerID string) ([]model.User, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetUser returns apperror.ErrNotFound for an unknown ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

// IsAdmin reports whether the user exists and is an administrator.
func (s *UserService) IsAdmin(ctx context.Context, id string) (bool, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading user %s: %w", id, err)
	}
	return u.IsAdmin, nil
}

// ResetPoints sets uid's points to zero. Admin only. An unknown uid is not
// an error: there is nothing to reset.
func (s *UserService) ResetPoints(ctx context.Context, callerID, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return apperror.ValidationFailed("uid", "Missing user ID")
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.users.ResetPoints(ctx, uid); err != nil {
		return fmt.Errorf("resetting points for %s: %w", uid, err)
	}

	s.logger.Info("points reset", slog.String("uid", uid), slog.String("by", callerID))
	return nil
}

// DeleteUser removes uid's record. Admin only. An unknown uid is not an
// error, and the user's notes are kept.
func (s *UserService) DeleteUser(ctx context.Context, callerID, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return apperror.ValidationFailed("uid", "Missing user ID")
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("deleting user %s: %w", uid, err)
	}

	s.logger.Info("user deleted", slog.String("uid", uid), slog.String("by", callerID))
	return nil
}

// CompleteProfile stores the caller's profile fields. All four are required.
func (s *UserService) CompleteProfile(ctx context.Context, callerID string, p model.Profile) error {
	p = model.Profile{
		FullName:    strings.TrimSpace(p.FullName),
		Age:         strings.TrimSpace(p.Age),
		Rahat:       strings.TrimSpace(p.Rahat),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
	}
	if p.FullName == "" || p.Age == "" || p.Rahat == "" || p.PhoneNumber == "" {
		return apperror.ValidationFailed("profile", "All fields are required")
	}

	if err := s.users.UpdateProfile(ctx, callerID, p); err != nil {
		return fmt.Errorf("completing profile for %s: %w", callerID, err)
	}
	return nil
}

// requireAdmin returns apperror.ErrForbidden unless callerID is an admin.
// An unknown caller is treated as a non-admin.
func (s *UserService) requireAdmin(ctx context.Context, callerID string) error {
	isAdmin, err := s.IsAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperror.Forbidden("Access forbidden")
	}
	return nil
}

// Package repository declares the storage contracts the services depend on.
//
// Two backends implement them: repository/sqlite (embedded, the default) and
// repository/firestore (the hosted document store). Services only ever see
// these interfaces, so tests can swap in in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/weekly-notes/internal/model"
)

// Order selects how ListNotes sorts its result.
type Order int

const (
	// OrderNone leaves the order up to the store.
	OrderNone Order = iota
	// OrderAscending sorts by creation timestamp, oldest first.
	OrderAscending
)

// TimeRange bounds a query on note creation timestamps.
// From is always inclusive. To is exclusive unless IncludeTo is set.
type TimeRange struct {
	From      time.Time
	To        time.Time
	IncludeTo bool
}

// CreateResult reports what CreateNote did besides inserting the note.
type CreateResult struct {
	// UserCredited is false when the owning user record does not exist.
	// The note is still stored in that case.
	UserCredited bool
}

// NoteRepository persists per-user, per-day note entries.
type NoteRepository interface {
	// NoteExists reports whether a note exists for exactly (userID, date).
	NoteExists(ctx context.Context, userID, date string) (bool, error)

	// ListNotes returns the user's notes whose CreatedAt falls in r.
	ListNotes(ctx context.Context, userID string, r TimeRange, order Order) ([]model.Note, error)

	// CreateNote stores the note and, in the same transaction, adds its
	// points to the owner's total and sets their last-note date.
	// Returns an apperror.ErrConflict error if (UserID, Date) already exists.
	CreateNote(ctx context.Context, note *model.Note) (CreateResult, error)
}

// UserRepository persists user records.
type UserRepository interface {
	// GetUserByID returns apperror.ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// CreateUser inserts a new user. ID must be set by the caller.
	CreateUser(ctx context.Context, user *model.User) error

	// RecordLogin refreshes the login timestamp and admin flag.
	RecordLogin(ctx context.Context, id string, loginAt time.Time, isAdmin bool) error

	// UpdateProfile stores the profile-completion fields.
	UpdateProfile(ctx context.Context, id string, p model.Profile) error

	// TopUsers returns up to limit non-admin users, points descending,
	// ties broken by ID ascending.
	TopUsers(ctx context.Context, limit int) ([]model.User, error)

	// ListUsers returns every user ordered by ID.
	ListUsers(ctx context.Context) ([]model.User, error)

	// ResetPoints sets the user's points to zero. A missing user is a no-op.
	ResetPoints(ctx context.Context, id string) error

	// DeleteUser removes the user record. A missing user is a no-op.
	// The user's notes are kept.
	DeleteUser(ctx context.Context, id string) error
}

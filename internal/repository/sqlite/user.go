package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, photo, full_name, age, rahat, phone_number,
	points, last_note_date, is_admin, login_at, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan
// function serves single lookups and listings.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u            model.User
		lastNoteDate sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&u.FullName,
		&u.Age,
		&u.Rahat,
		&u.PhoneNumber,
		&u.Points,
		&lastNoteDate,
		&u.IsAdmin,
		&u.LoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastNoteDate.Valid {
		u.LastNoteDate = &lastNoteDate.String
	}
	return &u, nil
}

// CreateUser inserts a new user row. The caller supplies the ID (the
// identity provider's subject), so there is nothing to generate here.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.FullName,
		user.Age,
		user.Rahat,
		user.PhoneNumber,
		user.Points,
		nullableString(user.LastNoteDate),
		user.IsAdmin,
		user.LoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return apperror.Store("creating user", fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err))
	}

	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Store("fetching user", fmt.Errorf("sqlite: getting user %s: %w", id, err))
	}

	return u, nil
}

// RecordLogin refreshes the login timestamp and admin flag of an existing user.
func (db *DB) RecordLogin(ctx context.Context, id string, loginAt time.Time, isAdmin bool) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET login_at = ?, is_admin = ?, updated_at = ? WHERE id = ?`,
		loginAt, isAdmin, time.Now(), id,
	)
	if err != nil {
		return apperror.Store("recording login", fmt.Errorf("sqlite: updating login for user %s: %w", id, err))
	}
	return nil
}

// UpdateProfile stores the profile-completion fields.
// Returns apperror.ErrNotFound if the user does not exist.
func (db *DB) UpdateProfile(ctx context.Context, id string, p model.Profile) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, age = ?, rahat = ?, phone_number = ?, updated_at = ?
		 WHERE id = ?`,
		p.FullName, p.Age, p.Rahat, p.PhoneNumber, time.Now(), id,
	)
	if err != nil {
		return apperror.Store("updating profile", fmt.Errorf("sqlite: updating profile for user %s: %w", id, err))
	}

	// RowsAffected() == 0 means the WHERE clause matched nothing → not found.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.Store("updating profile", fmt.Errorf("sqlite: checking rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// TopUsers returns the leaderboard: non-admins, highest points first.
// Equal totals are ordered by ID so the list is stable between requests.
func (db *DB) TopUsers(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_admin = 0
		 ORDER BY points DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, apperror.Store("listing top users", fmt.Errorf("sqlite: querying top users: %w", err))
	}
	defer rows.Close()

	return collectUsers(rows, limit)
}

// ListUsers returns every user, ordered by ID.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC`,
	)
	if err != nil {
		return nil, apperror.Store("listing users", fmt.Errorf("sqlite: querying users: %w", err))
	}
	defer rows.Close()

	return collectUsers(rows, 0)
}

func collectUsers(rows *sql.Rows, capacity int) ([]model.User, error) {
	users := make([]model.User, 0, capacity)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.Store("listing users", fmt.Errorf("sqlite: scanning user row: %w", err))
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store("listing users", fmt.Errorf("sqlite: iterating users: %w", err))
	}
	return users, nil
}

// ResetPoints zeroes the user's points. No existence check: resetting a
// missing user affects zero rows and is not an error.
func (db *DB) ResetPoints(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET points = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return apperror.Store("resetting points", fmt.Errorf("sqlite: resetting points for user %s: %w", id, err))
	}
	return nil
}

// DeleteUser removes the user row. Deleting a missing user is not an error.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return apperror.Store("deleting user", fmt.Errorf("sqlite: deleting user %s: %w", id, err))
	}
	return nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

// compile-time check that *DB implements repository.NoteRepository
var _ repository.NoteRepository = (*DB)(nil)

// NoteExists reports whether the user already has a note for date.
func (db *DB) NoteExists(ctx context.Context, userID, date string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM notes WHERE user_id = ? AND date = ?)`,
		userID, date,
	).Scan(&exists)
	if err != nil {
		return false, apperror.Store("checking note", fmt.Errorf("sqlite: checking note %s/%s: %w", userID, date, err))
	}
	return exists, nil
}

// ListNotes returns the user's notes created inside r.
//
// created_at is stored as unix milliseconds, so the bounds are converted the
// same way. OrderNone still sorts by the primary key so results are
// repeatable for identical queries.
func (db *DB) ListNotes(ctx context.Context, userID string, r repository.TimeRange, order repository.Order) ([]model.Note, error) {
	upper := "created_at < ?"
	if r.IncludeTo {
		upper = "created_at <= ?"
	}
	orderBy := "date ASC"
	if order == repository.OrderAscending {
		orderBy = "created_at ASC, date ASC"
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, date, categories, points, created_at
		 FROM notes
		 WHERE user_id = ? AND created_at >= ? AND `+upper+`
		 ORDER BY `+orderBy,
		userID,
		r.From.UnixMilli(),
		r.To.UnixMilli(),
	)
	if err != nil {
		return nil, apperror.Store("listing notes", fmt.Errorf("sqlite: querying notes for %s: %w", userID, err))
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var (
			n          model.Note
			categories string
			createdAt  int64
		)
		if err := rows.Scan(&n.UserID, &n.Date, &categories, &n.Points, &createdAt); err != nil {
			return nil, apperror.Store("listing notes", fmt.Errorf("sqlite: scanning note row: %w", err))
		}
		if err := json.Unmarshal([]byte(categories), &n.Categories); err != nil {
			return nil, apperror.Store("listing notes", fmt.Errorf("sqlite: decoding categories of %s/%s: %w", n.UserID, n.Date, err))
		}
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store("listing notes", fmt.Errorf("sqlite: iterating notes: %w", err))
	}

	return notes, nil
}

// CreateNote inserts the note and credits its owner inside one transaction.
//
// TRANSACTION FLOW:
//  1. INSERT ... ON CONFLICT DO NOTHING. Zero rows affected means the
//     (user_id, date) key is taken, so we roll back and report a conflict.
//  2. UPDATE users SET points = points + ?. The increment happens in SQL,
//     not read-modify-write in Go, so it can't lose a concurrent update.
//     Zero rows affected means the user record is missing; the note stays.
//  3. COMMIT. Both writes become visible together.
func (db *DB) CreateNote(ctx context.Context, note *model.Note) (repository.CreateResult, error) {
	var result repository.CreateResult

	categories, err := json.Marshal(note.Categories)
	if err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: encoding categories: %w", err))
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: beginning transaction: %w", err))
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone, so the
	// deferred call only matters on the early-return paths.
	defer tx.Rollback()

	inserted, err := tx.ExecContext(ctx,
		`INSERT INTO notes (user_id, date, categories, points, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO NOTHING`,
		note.UserID,
		note.Date,
		string(categories),
		note.Points,
		note.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: inserting note %s/%s: %w", note.UserID, note.Date, err))
	}
	if n, err := inserted.RowsAffected(); err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: checking rows affected: %w", err))
	} else if n == 0 {
		return result, apperror.Conflict("note", note.UserID+"/"+note.Date)
	}

	credited, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + ?, last_note_date = ?, updated_at = ? WHERE id = ?`,
		note.Points,
		note.Date,
		time.Now(),
		note.UserID,
	)
	if err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: crediting user %s: %w", note.UserID, err))
	}
	n, err := credited.RowsAffected()
	if err != nil {
		return result, apperror.Store("creating note", fmt.Errorf("sqlite: checking rows affected: %w", err))
	}
	result.UserCredited = n > 0

	if err := tx.Commit(); err != nil {
		return repository.CreateResult{}, apperror.Store("creating note", fmt.Errorf("sqlite: committing note %s/%s: %w", note.UserID, note.Date, err))
	}

	return result, nil
}

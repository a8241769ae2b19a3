package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

var _ repository.NoteRepository = (*Store)(nil)

func (s *Store) NoteExists(ctx context.Context, userID, date string) (bool, error) {
	_, err := s.notes(userID).Doc(date).Get(ctx)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, apperror.Store("checking note", fmt.Errorf("firestore: checking note %s/%s: %w", userID, date, err))
}

// ListNotes queries the user's sub-collection on the timestamp field.
func (s *Store) ListNotes(ctx context.Context, userID string, r repository.TimeRange, order repository.Order) ([]model.Note, error) {
	upper := "<"
	if r.IncludeTo {
		upper = "<="
	}
	q := s.notes(userID).
		Where("timestamp", ">=", r.From).
		Where("timestamp", upper, r.To)
	if order == repository.OrderAscending {
		q = q.OrderBy("timestamp", firestore.Asc)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var notes []model.Note
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, apperror.Store("listing notes", fmt.Errorf("firestore: querying notes for %s: %w", userID, err))
		}

		var n model.Note
		if err := snap.DataTo(&n); err != nil {
			return nil, apperror.Store("listing notes", fmt.Errorf("firestore: decoding note %s/%s: %w", userID, snap.Ref.ID, err))
		}
		n.UserID = userID
		n.Date = snap.Ref.ID
		n.CreatedAt = n.CreatedAt.UTC()
		notes = append(notes, n)
	}
	return notes, nil
}

// CreateNote creates Note/{uid}/Note/{date} and credits users/{uid} in one
// transaction. Firestore requires every read in a transaction to happen
// before the first write, so the user document is read up front.
func (s *Store) CreateNote(ctx context.Context, note *model.Note) (repository.CreateResult, error) {
	var result repository.CreateResult
	noteRef := s.notes(note.UserID).Doc(note.Date)
	userRef := s.userDoc(note.UserID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// The function may be retried on contention; reset per attempt.
		result = repository.CreateResult{}

		userExists := true
		if _, err := tx.Get(userRef); err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			userExists = false
		}

		if err := tx.Create(noteRef, note); err != nil {
			return err
		}
		if !userExists {
			return nil
		}

		result.UserCredited = true
		return tx.Update(userRef, []firestore.Update{
			{Path: "points", Value: firestore.Increment(note.Points)},
			{Path: "lastNoteDate", Value: note.Date},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return repository.CreateResult{}, apperror.Conflict("note", note.UserID+"/"+note.Date)
		}
		return repository.CreateResult{}, apperror.Store("creating note", fmt.Errorf("firestore: creating note %s/%s: %w", note.UserID, note.Date, err))
	}
	return result, nil
}

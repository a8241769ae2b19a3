package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

// These tests talk to the Firestore emulator and are skipped without it:
//
//	gcloud emulators firestore start --host-port=localhost:8081
//	FIRESTORE_EMULATOR_HOST=localhost:8081 go test ./internal/repository/firestore/
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	s, err := New(context.Background(), Config{ProjectID: "demo-weekly-notes"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// uniqueID keeps tests independent without clearing the emulator between runs.
func uniqueID(prefix string) string {
	return prefix + "-" + xid.New().String()
}

func TestStore_CreateNoteCreditsUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := uniqueID("u")

	require.NoError(t, s.CreateUser(ctx, &model.User{ID: uid, Email: uid + "@example.com"}))

	friday := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	res, err := s.CreateNote(ctx, &model.Note{
		UserID: uid, Date: "2024-06-07", Categories: []string{"X"}, Points: 5, CreatedAt: friday,
	})
	require.NoError(t, err)
	assert.True(t, res.UserCredited)

	u, err := s.GetUserByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.Points)
	require.NotNil(t, u.LastNoteDate)
	assert.Equal(t, "2024-06-07", *u.LastNoteDate)

	_, err = s.CreateNote(ctx, &model.Note{
		UserID: uid, Date: "2024-06-07", Categories: []string{"Y"}, Points: 5, CreatedAt: friday,
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	u, err = s.GetUserByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.Points)
}

func TestStore_ListNotesWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := uniqueID("u")
	start := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	for date, ts := range map[string]time.Time{
		"2024-06-07": start,
		"2024-06-09": start.Add(48 * time.Hour),
		"2024-06-14": end,
	} {
		_, err := s.CreateNote(ctx, &model.Note{UserID: uid, Date: date, Categories: []string{date}, CreatedAt: ts})
		require.NoError(t, err)
	}

	notes, err := s.ListNotes(ctx, uid, repository.TimeRange{From: start, To: end}, repository.OrderAscending)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "2024-06-07", notes[0].Date)
	assert.Equal(t, "2024-06-09", notes[1].Date)
	assert.Equal(t, uid, notes[0].UserID)

	exists, err := s.NoteExists(ctx, uid, "2024-06-14")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_PermissiveMutations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ghost := uniqueID("ghost")

	assert.NoError(t, s.ResetPoints(ctx, ghost))
	assert.NoError(t, s.DeleteUser(ctx, ghost))

	_, err := s.GetUserByID(ctx, ghost)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProfile(ctx, ghost, model.Profile{FullName: "x"}), apperror.ErrNotFound)
}

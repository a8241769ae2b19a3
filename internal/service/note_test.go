package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

const communion = "التناول"

// friday 2024-06-07 10:00 UTC is "now" unless a test moves the clock.
var friday10am = time.Date(2024, 6, 7, 10, 0, 0, 0, time.UTC)

func newTestNoteService(t *testing.T) (*NoteService, *fakeStore, *testClock) {
	t.Helper()
	store := newFakeStore()
	clock := newTestClock(friday10am)
	return NewNoteService(store, DefaultWeeklyUnique, clock.Now, testLogger()), store, clock
}

// =========================================================================
// SUBMIT TESTS
// =========================================================================

func TestSubmit_CreditsUser(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	store.addUser(model.User{ID: "u1"})

	res, err := svc.Submit(context.Background(), "u1", "2024-06-07", []string{"X"}, 5)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Success: true}, res)

	u := store.user("u1")
	assert.Equal(t, int64(5), u.Points)
	require.NotNil(t, u.LastNoteDate)
	assert.Equal(t, "2024-06-07", *u.LastNoteDate)
}

func TestSubmit_StampsCreatedAtFromClock(t *testing.T) {
	svc, store, clock := newTestNoteService(t)
	clock.Set(time.Date(2024, 6, 8, 9, 30, 15, 123456789, time.FixedZone("EET", 2*3600)))

	_, err := svc.Submit(context.Background(), "u1", "2024-06-08", []string{"X"}, 1)
	require.NoError(t, err)

	n := store.notes[noteKey("u1", "2024-06-08")]
	assert.Equal(t, time.Date(2024, 6, 8, 7, 30, 15, 123000000, time.UTC), n.CreatedAt)
	assert.Equal(t, time.UTC, n.CreatedAt.Location())
}

func TestSubmit_SameDayTwice(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	store.addUser(model.User{ID: "u1"})
	ctx := context.Background()

	first, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"X"}, 5)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"Y"}, 5)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Reason: ReasonAlreadySubmitted}, second)

	assert.Equal(t, 1, store.noteCount())
	assert.Equal(t, int64(5), store.user("u1").Points)
}

func TestSubmit_ConcurrentDuplicateIsAlreadySubmitted(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	store.addUser(model.User{ID: "u1"})
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"X"}, 5)
	require.NoError(t, err)

	// The pre-check misses the existing note; the store key catches it.
	store.hideNotes = true
	res, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"X"}, 5)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Reason: ReasonAlreadySubmitted}, res)
	assert.Equal(t, int64(5), store.user("u1").Points)
}

func TestSubmit_WeeklyUniqueTwiceInWeek(t *testing.T) {
	svc, store, clock := newTestNoteService(t)
	store.addUser(model.User{ID: "u1"})
	ctx := context.Background()

	first, err := svc.Submit(ctx, "u1", "2024-06-07", []string{communion}, 10)
	require.NoError(t, err)
	require.True(t, first.Success)

	clock.Set(time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))
	second, err := svc.Submit(ctx, "u1", "2024-06-09", []string{"Y", communion}, 10)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "You already submitted the weekly activity: "+communion, second.Reason)

	assert.Equal(t, 1, store.noteCount())
	assert.Equal(t, int64(10), store.user("u1").Points)
}

func TestSubmit_FirstDuplicateInInputOrderIsNamed(t *testing.T) {
	svc, _, clock := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"مدارس الاحد", communion}, 1)
	require.NoError(t, err)

	clock.Set(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC))
	res, err := svc.Submit(ctx, "u1", "2024-06-10", []string{communion, "مدارس الاحد"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "You already submitted the weekly activity: "+communion, res.Reason)
}

func TestSubmit_WeeklyUniqueInNextWeekIsAllowed(t *testing.T) {
	svc, _, clock := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "2024-06-07", []string{communion}, 1)
	require.NoError(t, err)

	// 2024-06-14 is the next Friday: a new window.
	clock.Set(time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC))
	res, err := svc.Submit(ctx, "u1", "2024-06-14", []string{communion}, 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSubmit_NonUniqueCategoryTwiceInWeek(t *testing.T) {
	svc, store, clock := newTestNoteService(t)
	store.addUser(model.User{ID: "u1"})
	ctx := context.Background()

	first, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"X"}, 2)
	require.NoError(t, err)

	clock.Set(time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC))
	second, err := svc.Submit(ctx, "u1", "2024-06-08", []string{"X"}, 3)
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, int64(5), store.user("u1").Points)
}

func TestSubmit_ConfiguredWeeklyUnique(t *testing.T) {
	store := newFakeStore()
	clock := newTestClock(friday10am)
	svc := NewNoteService(store, []string{"Retreat"}, clock.Now, testLogger())
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"Retreat", communion}, 1)
	require.NoError(t, err)

	clock.Set(time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC))
	res, err := svc.Submit(ctx, "u1", "2024-06-08", []string{communion}, 1)
	require.NoError(t, err)
	assert.True(t, res.Success, "communion is not weekly-unique under this configuration")

	clock.Set(time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))
	res, err = svc.Submit(ctx, "u1", "2024-06-09", []string{"Retreat"}, 1)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestSubmit_MissingUserStillStoresNote(t *testing.T) {
	svc, store, _ := newTestNoteService(t)

	res, err := svc.Submit(context.Background(), "ghost", "2024-06-07", []string{"X"}, 5)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, store.noteCount())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		date       string
		categories []string
		points     float64
		field      string
	}{
		{"empty user", "  ", "2024-06-07", []string{"X"}, 1, "userId"},
		{"bad date", "u1", "07/06/2024", []string{"X"}, 1, "date"},
		{"impossible date", "u1", "2024-02-30", []string{"X"}, 1, "date"},
		{"no categories", "u1", "2024-06-07", nil, 1, "notes"},
		{"blank category", "u1", "2024-06-07", []string{"X", " "}, 1, "notes"},
		{"negative points", "u1", "2024-06-07", []string{"X"}, -1, "points"},
		{"fractional points", "u1", "2024-06-07", []string{"X"}, 1.5, "points"},
		{"NaN points", "u1", "2024-06-07", []string{"X"}, math.NaN(), "points"},
		{"infinite points", "u1", "2024-06-07", []string{"X"}, math.Inf(1), "points"},
		{"huge points", "u1", "2024-06-07", []string{"X"}, 1e300, "points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestNoteService(t)

			_, err := svc.Submit(context.Background(), tt.userID, tt.date, tt.categories, tt.points)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, 0, store.noteCount())
		})
	}
}

func TestSubmit_ZeroPointsAllowed(t *testing.T) {
	svc, _, _ := newTestNoteService(t)

	res, err := svc.Submit(context.Background(), "u1", "2024-06-07", []string{"X"}, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSubmit_StoreFailures(t *testing.T) {
	storeErr := apperror.Store("test", errors.New("disk full"))

	tests := []struct {
		name   string
		inject func(*fakeStore)
	}{
		{"exists check", func(f *fakeStore) { f.existsErr = storeErr }},
		{"week query", func(f *fakeStore) { f.listErr = storeErr }},
		{"create", func(f *fakeStore) { f.createErr = storeErr }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestNoteService(t)
			tt.inject(store)

			_, err := svc.Submit(context.Background(), "u1", "2024-06-07", []string{"X"}, 1)
			assert.ErrorIs(t, err, apperror.ErrStore)
		})
	}
}

// =========================================================================
// QUERY TESTS
// =========================================================================

// seedWeek stores notes for u1 at the given creation times, one per day.
func seedWeek(t *testing.T, store *fakeStore, created ...time.Time) {
	t.Helper()
	for i, c := range created {
		date := time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		_, err := store.CreateNote(context.Background(), &model.Note{
			UserID: "u1", Date: date, Categories: []string{date}, Points: 1, CreatedAt: c,
		})
		require.NoError(t, err)
	}
}

func TestEntriesForWeek_WindowBoundsAndOrder(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	start := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	seedWeek(t, store,
		start.Add(-time.Millisecond), // before
		start.Add(3*time.Hour),       // inside, second
		start,                        // inside, first (at start)
		end.Add(-time.Millisecond),   // inside, last
		end,                          // excluded
	)

	notes, err := svc.EntriesForWeek(context.Background(), "u1", "2024-06-07", repository.OrderAscending)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, start, notes[0].CreatedAt)
	assert.Equal(t, start.Add(3*time.Hour), notes[1].CreatedAt)
	assert.Equal(t, end.Add(-time.Millisecond), notes[2].CreatedAt)
}

func TestWeekCategories(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	start := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	seedWeek(t, store, start.Add(time.Hour), start.Add(-time.Hour))

	cats, err := svc.WeekCategories(context.Background(), "u1", "2024-06-07")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01"}, cats)

	empty, err := svc.WeekCategories(context.Background(), "nobody", "2024-06-07")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestEntriesInRange_InclusiveDays(t *testing.T) {
	svc, store, _ := newTestNoteService(t)
	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

	seedWeek(t, store,
		day(7).Add(-time.Millisecond),              // excluded
		day(7),                                     // first
		day(13).Add(24*time.Hour-time.Millisecond), // last ms of end day
		day(14),                                    // excluded
	)

	notes, err := svc.EntriesInRange(context.Background(), "u1", "2024-06-07", "2024-06-13")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, day(7), notes[0].CreatedAt)
}

func TestQueries_Validation(t *testing.T) {
	svc, _, _ := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.Exists(ctx, "", "2024-06-07")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.Exists(ctx, "u1", "today")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.WeekCategories(ctx, "u1", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.EntriesInRange(ctx, "u1", "2024-06-13", "2024-06-07")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestExists(t *testing.T) {
	svc, _, _ := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "2024-06-07", []string{"X"}, 1)
	require.NoError(t, err)

	got, err := svc.Exists(ctx, "u1", "2024-06-07")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.Exists(ctx, "u1", "2024-06-08")
	require.NoError(t, err)
	assert.False(t, got)
}

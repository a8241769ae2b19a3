package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
)

func newTestUserService(t *testing.T) (*UserService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.addUser(model.User{ID: "admin", Name: "Admin", IsAdmin: true, Points: 500})
	store.addUser(model.User{ID: "alice", Name: "Alice", Points: 30})
	store.addUser(model.User{ID: "bob", Name: "Bob", Points: 10})
	store.addUser(model.User{ID: "carol", Name: "Carol", Points: 30})
	return NewUserService(store, testLogger()), store
}

// =========================================================================
// LEADERBOARD
// =========================================================================

func TestTopUsers(t *testing.T) {
	svc, _ := newTestUserService(t)

	got, err := svc.TopUsers(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []model.LeaderboardEntry{
		{FullName: "Alice", Points: 30},
		{FullName: "Carol", Points: 30},
		{FullName: "Bob", Points: 10},
	}, got)
}

func TestTopUsers_Limit(t *testing.T) {
	svc, _ := newTestUserService(t)

	got, err := svc.TopUsers(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTopUsers_Empty(t *testing.T) {
	svc := NewUserService(newFakeStore(), testLogger())

	got, err := svc.TopUsers(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// =========================================================================
// ADMIN OPERATIONS
// =========================================================================

func TestAllUsers(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.AllUsers(ctx, "alice")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.AllUsers(ctx, "nobody")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	users, err := svc.AllUsers(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestAllUsers_StoreFailureIsNotForbidden(t *testing.T) {
	svc, store := newTestUserService(t)
	store.getUserErr = apperror.Store("fetching user", errors.New("timeout"))

	_, err := svc.AllUsers(context.Background(), "admin")
	assert.ErrorIs(t, err, apperror.ErrStore)
	assert.NotErrorIs(t, err, apperror.ErrForbidden)
}

func TestResetPoints(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.ResetPoints(ctx, "admin", "alice"))
	assert.Equal(t, int64(0), store.user("alice").Points)

	// Unknown uid is a silent no-op.
	assert.NoError(t, svc.ResetPoints(ctx, "admin", "ghost"))
}

func TestResetPoints_Guards(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ResetPoints(ctx, "admin", " "), apperror.ErrValidation)
	assert.ErrorIs(t, svc.ResetPoints(ctx, "bob", "alice"), apperror.ErrForbidden)
	assert.Equal(t, int64(30), store.user("alice").Points)
}

func TestDeleteUser(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, "bob", "alice"), apperror.ErrForbidden)
	assert.NotNil(t, store.user("alice"))

	require.NoError(t, svc.DeleteUser(ctx, "admin", "alice"))
	assert.Nil(t, store.user("alice"))

	assert.NoError(t, svc.DeleteUser(ctx, "admin", "alice"), "deleting twice is a no-op")
	assert.ErrorIs(t, svc.DeleteUser(ctx, "admin", ""), apperror.ErrValidation)
}

// =========================================================================
// LOOKUP / PROFILE
// =========================================================================

func TestGetUser(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name)

	_, err = svc.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetUser(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCompleteProfile(t *testing.T) {
	svc, store := newTestUserService(t)

	err := svc.CompleteProfile(context.Background(), "bob", model.Profile{
		FullName: " Bob Fawzy ", Age: "19", Rahat: "St. George", PhoneNumber: "0100",
	})
	require.NoError(t, err)

	u := store.user("bob")
	assert.Equal(t, "Bob Fawzy", u.FullName)
	assert.Equal(t, "St. George", u.Rahat)
}

func TestCompleteProfile_Errors(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	err := svc.CompleteProfile(ctx, "bob", model.Profile{FullName: "Bob", Age: "19", Rahat: "x"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = svc.CompleteProfile(ctx, "ghost", model.Profile{FullName: "G", Age: "1", Rahat: "x", PhoneNumber: "1"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

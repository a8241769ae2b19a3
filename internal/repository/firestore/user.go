package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

// CreateUser writes users/{id}. The write fails if the document exists.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.userDoc(user.ID).Create(ctx, user); err != nil {
		return apperror.Store("creating user", fmt.Errorf("firestore: creating user %s: %w", user.ID, err))
	}
	return nil
}

// GetUserByID reads users/{id}.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	snap, err := s.userDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Store("fetching user", fmt.Errorf("firestore: getting user %s: %w", id, err))
	}
	return decodeUser(snap)
}

func (s *Store) RecordLogin(ctx context.Context, id string, loginAt time.Time, isAdmin bool) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "loginTimestamp", Value: loginAt},
		{Path: "isAdmin", Value: isAdmin},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return apperror.Store("recording login", fmt.Errorf("firestore: updating login for user %s: %w", id, err))
	}
	return nil
}

// UpdateProfile merges the profile fields into users/{id}. Update (unlike
// Set) fails with NotFound when the document does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id string, p model.Profile) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "fullName", Value: p.FullName},
		{Path: "age", Value: p.Age},
		{Path: "rahat", Value: p.Rahat},
		{Path: "phoneNumber", Value: p.PhoneNumber},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return apperror.NotFound("user", id)
		}
		return apperror.Store("updating profile", fmt.Errorf("firestore: updating profile for user %s: %w", id, err))
	}
	return nil
}

// TopUsers needs a composite index on (isAdmin, points DESC, __name__).
func (s *Store) TopUsers(ctx context.Context, limit int) ([]model.User, error) {
	snaps, err := s.client.Collection(usersCollection).
		Where("isAdmin", "==", false).
		OrderBy("points", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, apperror.Store("listing top users", fmt.Errorf("firestore: querying top users: %w", err))
	}
	return decodeUsers(snaps)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	snaps, err := s.client.Collection(usersCollection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, apperror.Store("listing users", fmt.Errorf("firestore: querying users: %w", err))
	}
	return decodeUsers(snaps)
}

// ResetPoints zeroes users/{id}.points. A missing document is not an error.
func (s *Store) ResetPoints(ctx context.Context, id string) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "points", Value: 0},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return apperror.Store("resetting points", fmt.Errorf("firestore: resetting points for user %s: %w", id, err))
	}
	return nil
}

// DeleteUser removes users/{id}. Firestore deletes of missing documents
// succeed, and the user's notes under Note/{id} are left in place.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.userDoc(id).Delete(ctx); err != nil {
		return apperror.Store("deleting user", fmt.Errorf("firestore: deleting user %s: %w", id, err))
	}
	return nil
}

func decodeUser(snap *firestore.DocumentSnapshot) (*model.User, error) {
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, apperror.Store("decoding user", fmt.Errorf("firestore: decoding user %s: %w", snap.Ref.ID, err))
	}
	u.ID = snap.Ref.ID
	return &u, nil
}

func decodeUsers(snaps []*firestore.DocumentSnapshot) ([]model.User, error) {
	users := make([]model.User, 0, len(snaps))
	for _, snap := range snaps {
		u, err := decodeUser(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// Package firestore implements the repository interfaces on Cloud Firestore.
//
// Document layout:
//
//	users/{uid}                 one document per user (model.User fields)
//	Note/{uid}/Note/{date}      one document per user per day (model.Note fields)
//
// The per-day document ID is the date string itself, so "one note per user
// per day" is enforced by the document key: Transaction.Create fails with
// AlreadyExists when the day is taken.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

const (
	usersCollection = "users"
	notesCollection = "Note"
)

// Store holds a Firestore client and provides repository methods.
type Store struct {
	client *firestore.Client
}

// Config selects the Firebase project and, optionally, a service account key.
// With no CredentialsFile the SDK falls back to Application Default
// Credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// New initializes a Firebase app and opens its Firestore client.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: opening client: %w", err)
	}

	return &Store{client: client}, nil
}

// Close releases the client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userDoc(id string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(id)
}

// notes returns the per-user sub-collection Note/{uid}/Note.
func (s *Store) notes(userID string) *firestore.CollectionRef {
	return s.client.Collection(notesCollection).Doc(userID).Collection(notesCollection)
}

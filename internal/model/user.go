// Package model holds the records shared by the store, service and HTTP
// layers: users, their daily notes, and the views derived from them.
package model

import "time"

// User represents a member of the organization.
//
// We use Google OAuth as the identity provider, so the primary key is the
// Google account's stable subject identifier ("sub" claim). Unlike a
// generated ID, this lets a returning user land on the same record without a
// lookup table.
//
// WHY LastNoteDate *string?
// A user who never submitted a note has no last-note date. A nil pointer
// encodes to JSON null, which is what the frontend checks for. The value
// itself is a calendar date string ("2024-06-07"), not a timestamp.
//
// The `firestore:"..."` tags mirror the field names used by the document
// store so the Firestore backend can DataTo() straight into this struct.
type User struct {
	ID           string    `json:"id"           firestore:"-"`
	Name         string    `json:"name"         firestore:"name"`  // Display name from Google
	Email        string    `json:"email"        firestore:"email"` // Primary email from Google
	Photo        string    `json:"photo"        firestore:"photo"` // Profile picture URL
	FullName     string    `json:"fullName"     firestore:"fullName"`
	Age          string    `json:"age"          firestore:"age"`
	Rahat        string    `json:"rahat"        firestore:"rahat"`
	PhoneNumber  string    `json:"phoneNumber"  firestore:"phoneNumber"`
	Points       int64     `json:"points"       firestore:"points"`
	LastNoteDate *string   `json:"lastNoteDate" firestore:"lastNoteDate"`
	IsAdmin      bool      `json:"isAdmin"      firestore:"isAdmin"`
	LoginAt      time.Time `json:"loginTimestamp" firestore:"loginTimestamp"`
	CreatedAt    time.Time `json:"createdAt"    firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"    firestore:"updatedAt"`
}

// Profile is the set of fields a user fills in after their first login.
type Profile struct {
	FullName    string
	Age         string
	Rahat       string
	PhoneNumber string
}

// LeaderboardEntry is one row of the public top-users list.
// The JSON keys match what the frontend already renders.
type LeaderboardEntry struct {
	FullName string `json:"FullName"`
	Points   int64  `json:"points"`
}

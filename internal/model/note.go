package model

import "time"

// Note is a single day's activity record for one user.
//
// A note is keyed by (UserID, Date): there is at most one per user per
// calendar day, and it never changes after it is written.
//
// CreatedAt is assigned by the server, not the client. Weekly queries and
// reports range over CreatedAt, so a note back-filled for an earlier date
// still counts toward the week it was submitted in.
type Note struct {
	UserID     string    `json:"userId"    firestore:"-"`
	Date       string    `json:"date"      firestore:"-"` // "2006-01-02"
	Categories []string  `json:"notes"     firestore:"notes"`
	Points     int64     `json:"points"    firestore:"points"`
	CreatedAt  time.Time `json:"timestamp" firestore:"timestamp"`
}

// Package report defines the weekly report document and the interface its
// renderers implement. The PDF renderer lives in report/pdf.
package report

import (
	"io"
	"time"

	"github.com/sakif/weekly-notes/internal/model"
)

// Report is one user's notes over an inclusive range of calendar days.
type Report struct {
	UserID   string
	UserName string // empty when the user record is missing
	From     time.Time
	To       time.Time
	Entries  []model.Note // oldest first
}

// Formatter renders a Report to a byte stream.
type Formatter interface {
	Render(w io.Writer, r Report) error
	ContentType() string
	FileName(r Report) string
}

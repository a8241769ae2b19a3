package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/report"
)

// ReportService builds weekly reports and hands them to a Formatter.
type ReportService struct {
	notes     *NoteService
	users     *UserService
	formatter report.Formatter
	logger    *slog.Logger
}

func NewReportService(notes *NoteService, users *UserService, formatter report.Formatter, logger *slog.Logger) *ReportService {
	return &ReportService{
		notes:     notes,
		users:     users,
		formatter: formatter,
		logger:    logger,
	}
}

// Build assembles the report for userID over the inclusive day range.
//
// The user lookup and the note query are independent, so they run
// concurrently. A missing user record only drops the display name.
func (s *ReportService) Build(ctx context.Context, userID, startDate, endDate string) (report.Report, error) {
	userID, from, to, err := parseRange(userID, startDate, endDate)
	if err != nil {
		return report.Report{}, err
	}

	var (
		user    *model.User
		entries []model.Note
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.GetUser(gctx, userID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		user = u
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.notes.EntriesInRange(gctx, userID, startDate, endDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Report{}, fmt.Errorf("building report: %w", err)
	}

	r := report.Report{
		UserID:  userID,
		From:    from,
		To:      to,
		Entries: entries,
	}
	if user != nil {
		r.UserName = user.Name
	}
	return r, nil
}

// Render writes r with the configured formatter.
func (s *ReportService) Render(w io.Writer, r report.Report) error {
	if err := s.formatter.Render(w, r); err != nil {
		s.logger.Error("failed to render report",
			slog.String("userID", r.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// ContentType and FileName describe the rendered document for HTTP headers.
func (s *ReportService) ContentType() string            { return s.formatter.ContentType() }
func (s *ReportService) FileName(r report.Report) string { return s.formatter.FileName(r) }

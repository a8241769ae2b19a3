package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/repository"
	"github.com/sakif/weekly-notes/internal/week"
)

// ReasonAlreadySubmitted is the rejection reason for a second note on the same day.
const ReasonAlreadySubmitted = "already submitted"

// maxPoints keeps every accepted value exactly representable as float64
// (the JSON number type) and far away from int64 overflow when summed.
const maxPoints = 1 << 40

// DefaultWeeklyUnique is the set of activities that may be recorded at most
// once per week window when no override is configured.
var DefaultWeeklyUnique = []string{
	"التناول",
	"مدارس الاحد",
	"الشمامسة/الشماسات",
	"اعداد الخدام /فصل تعليمي",
}

// SubmitResult is the outcome of a submission the service could evaluate.
// A rejection (Success false) is a normal business result, not an error.
type SubmitResult struct {
	Success bool
	Reason  string
}

// NoteService owns note submission and the read-side note queries.
type NoteService struct {
	repo         repository.NoteRepository
	weeklyUnique map[string]struct{}
	now          func() time.Time
	logger       *slog.Logger
}

// NewNoteService creates a NoteService.
//
// weeklyUnique lists the categories limited to one occurrence per week
// window. now is the clock used to stamp CreatedAt; pass nil for time.Now.
func NewNoteService(repo repository.NoteRepository, weeklyUnique []string, now func() time.Time, logger *slog.Logger) *NoteService {
	if now == nil {
		now = time.Now
	}
	set := make(map[string]struct{}, len(weeklyUnique))
	for _, c := range weeklyUnique {
		set[c] = struct{}{}
	}
	return &NoteService{
		repo:         repo,
		weeklyUnique: set,
		now:          now,
		logger:       logger,
	}
}

// Submit records one day's note for a user and credits its points.
// points must be a whole number; 2.5 is rejected like a negative value.
//
// SUBMISSION RULES, in order:
//  1. Inputs are validated; a bad input is an ErrValidation error.
//  2. A note already stored for (userID, date) → "already submitted".
//  3. The user's notes created in the week window of date are collected.
//     The first incoming category (input order) that is weekly-unique and
//     already present in that window → "You already submitted the weekly
//     activity: <label>".
//  4. The note is stored with a server-assigned CreatedAt, and in the same
//     store transaction the user's points are incremented and their
//     last-note date set. A user record that doesn't exist is skipped.
//
// Step 2 is repeated by the store itself: the (userID, date) key is unique,
// so a concurrent duplicate that slipped past the check comes back as
// ErrConflict and is reported the same way.
func (s *NoteService) Submit(ctx context.Context, userID, date string, categories []string, points float64) (SubmitResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SubmitResult{}, apperror.ValidationFailed("userId", "userId is required")
	}
	day, err := week.ParseDate(date)
	if err != nil {
		return SubmitResult{}, apperror.ValidationFailed("date", "date must be a YYYY-MM-DD calendar date")
	}
	if len(categories) == 0 {
		return SubmitResult{}, apperror.ValidationFailed("notes", "at least one note is required")
	}
	for _, c := range categories {
		if strings.TrimSpace(c) == "" {
			return SubmitResult{}, apperror.ValidationFailed("notes", "notes must not contain empty labels")
		}
	}
	if math.IsNaN(points) || math.IsInf(points, 0) || points < 0 || points != math.Trunc(points) || points > maxPoints {
		return SubmitResult{}, apperror.ValidationFailed("points", "points must be a non-negative whole number")
	}

	exists, err := s.repo.NoteExists(ctx, userID, date)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("checking existing note: %w", err)
	}
	if exists {
		return SubmitResult{Reason: ReasonAlreadySubmitted}, nil
	}

	window := week.WindowFor(day)
	recorded, err := s.categoriesIn(ctx, userID, window)
	if err != nil {
		return SubmitResult{}, err
	}
	for _, c := range categories {
		if _, unique := s.weeklyUnique[c]; unique && slices.Contains(recorded, c) {
			return SubmitResult{Reason: "You already submitted the weekly activity: " + c}, nil
		}
	}

	note := &model.Note{
		UserID:     userID,
		Date:       date,
		Categories: slices.Clone(categories),
		Points:     int64(points),
		CreatedAt:  time.UnixMilli(s.now().UnixMilli()).UTC(),
	}

	res, err := s.repo.CreateNote(ctx, note)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return SubmitResult{Reason: ReasonAlreadySubmitted}, nil
		}
		s.logger.Error("failed to store note",
			slog.String("userID", userID),
			slog.String("date", date),
			slog.String("error", err.Error()),
		)
		return SubmitResult{}, fmt.Errorf("creating note: %w", err)
	}

	if !res.UserCredited {
		s.logger.Warn("note stored for unknown user, points not credited",
			slog.String("userID", userID),
			slog.String("date", date),
		)
	}
	s.logger.Info("note submitted",
		slog.String("userID", userID),
		slog.String("date", date),
		slog.Int64("points", note.Points),
	)

	return SubmitResult{Success: true}, nil
}

// Exists reports whether the user has a note for date.
func (s *NoteService) Exists(ctx context.Context, userID, date string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, apperror.ValidationFailed("userId", "userId is required")
	}
	if _, err := week.ParseDate(date); err != nil {
		return false, apperror.ValidationFailed("date", "date must be a YYYY-MM-DD calendar date")
	}

	exists, err := s.repo.NoteExists(ctx, userID, date)
	if err != nil {
		return false, fmt.Errorf("checking note: %w", err)
	}
	return exists, nil
}

// WeekCategories returns every category recorded in the 7 days starting at
// weekStart, flattened in store order. Never nil.
func (s *NoteService) WeekCategories(ctx context.Context, userID, weekStart string) ([]string, error) {
	window, err := parseWindow(userID, weekStart)
	if err != nil {
		return nil, err
	}
	return s.categoriesIn(ctx, strings.TrimSpace(userID), window)
}

// EntriesForWeek returns the notes created in the 7 days starting at weekStart.
func (s *NoteService) EntriesForWeek(ctx context.Context, userID, weekStart string, order repository.Order) ([]model.Note, error) {
	window, err := parseWindow(userID, weekStart)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.ListNotes(ctx, strings.TrimSpace(userID),
		repository.TimeRange{From: window.Start, To: window.End}, order)
	if err != nil {
		return nil, fmt.Errorf("listing week notes: %w", err)
	}
	return notes, nil
}

// EntriesInRange returns the notes created between the start of startDate
// and the last millisecond of endDate, oldest first.
func (s *NoteService) EntriesInRange(ctx context.Context, userID, startDate, endDate string) ([]model.Note, error) {
	userID, from, to, err := parseRange(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	lo, hi := week.DayRange(from, to)
	notes, err := s.repo.ListNotes(ctx, userID,
		repository.TimeRange{From: lo, To: hi, IncludeTo: true}, repository.OrderAscending)
	if err != nil {
		return nil, fmt.Errorf("listing notes in range: %w", err)
	}
	return notes, nil
}

func (s *NoteService) categoriesIn(ctx context.Context, userID string, w week.Window) ([]string, error) {
	notes, err := s.repo.ListNotes(ctx, userID,
		repository.TimeRange{From: w.Start, To: w.End}, repository.OrderNone)
	if err != nil {
		return nil, fmt.Errorf("listing week notes: %w", err)
	}

	categories := []string{}
	for _, n := range notes {
		categories = append(categories, n.Categories...)
	}
	return categories, nil
}

func parseWindow(userID, weekStart string) (week.Window, error) {
	if strings.TrimSpace(userID) == "" {
		return week.Window{}, apperror.ValidationFailed("userId", "userId is required")
	}
	start, err := week.ParseDate(weekStart)
	if err != nil {
		return week.Window{}, apperror.ValidationFailed("weekStart", "weekStart must be a YYYY-MM-DD calendar date")
	}
	return week.WindowFrom(start), nil
}

// parseRange validates the arguments of a day-range query and returns the
// trimmed user ID and both calendar dates.
func parseRange(userID, startDate, endDate string) (string, time.Time, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, time.Time{}, apperror.ValidationFailed("userId", "userId is required")
	}
	from, err := week.ParseDate(startDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, apperror.ValidationFailed("startDate", "startDate must be a YYYY-MM-DD calendar date")
	}
	to, err := week.ParseDate(endDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, apperror.ValidationFailed("endDate", "endDate must be a YYYY-MM-DD calendar date")
	}
	if to.Before(from) {
		return "", time.Time{}, time.Time{}, apperror.ValidationFailed("endDate", "endDate must not be before startDate")
	}
	return userID, from, to, nil
}

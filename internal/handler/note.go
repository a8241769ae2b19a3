package handler

import (
	"bytes"
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/service"
)

// NoteHandler serves the /note routes: submission, the existence check, the
// week view and the PDF report.
//
// Every route takes the target userId from the request. A user may only act
// on their own notes; an admin may act on anyone's.
type NoteHandler struct {
	notes   *service.NoteService
	reports *service.ReportService
	users   *service.UserService
	logger  *slog.Logger
}

func NewNoteHandler(
	notes *service.NoteService,
	reports *service.ReportService,
	users *service.UserService,
	logger *slog.Logger,
) *NoteHandler {
	return &NoteHandler{notes: notes, reports: reports, users: users, logger: logger}
}

type submitNoteRequest struct {
	UserID string   `json:"userId" validate:"required"`
	Date   string   `json:"date"   validate:"required,datetime=2006-01-02"`
	Notes  []string `json:"notes"  validate:"required,min=1,dive,required"`
	// A pointer so that a missing field is distinguishable from 0.
	Points *float64 `json:"points" validate:"required,gte=0"`
}

type submitNoteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type checkNoteQuery struct {
	UserID string `json:"userId" validate:"required"`
	Date   string `json:"date"   validate:"required,datetime=2006-01-02"`
}

type weekQuery struct {
	UserID    string `json:"userId"    validate:"required"`
	WeekStart string `json:"weekStart" validate:"required,datetime=2006-01-02"`
}

type reportQuery struct {
	UserID    string `json:"userId"    validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate"   validate:"required,datetime=2006-01-02"`
}

// HandleSubmit records a day's note.
//
// HTTP: POST /note/submit
// BODY: {"userId":"...","date":"2024-06-07","notes":["..."],"points":5}
//
// A business rejection (already submitted, weekly activity repeated) is a
// 200 with success=false and the reason in "error".
func (h *NoteHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.authorize(r.Context(), req.UserID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	result, err := h.notes.Submit(r.Context(), req.UserID, req.Date, req.Notes, *req.Points)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitNoteResponse{Success: result.Success, Error: result.Reason})
}

// HandleCheck reports whether a note exists for a day.
//
// HTTP: GET /note/check?userId=...&date=2024-06-07
func (h *NoteHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	q := checkNoteQuery{
		UserID: r.URL.Query().Get("userId"),
		Date:   r.URL.Query().Get("date"),
	}
	if err := h.validateQuery(r, q, q.UserID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	exists, err := h.notes.Exists(r.Context(), q.UserID, q.Date)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// HandleWeek returns every category recorded in the 7 days from weekStart.
//
// HTTP: GET /note/week?userId=...&weekStart=2024-06-07
func (h *NoteHandler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	q := weekQuery{
		UserID:    r.URL.Query().Get("userId"),
		WeekStart: r.URL.Query().Get("weekStart"),
	}
	if err := h.validateQuery(r, q, q.UserID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	categories, err := h.notes.WeekCategories(r.Context(), q.UserID, q.WeekStart)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"notes": categories})
}

// HandleWeekReport streams the notes between two dates as a downloadable
// document.
//
// HTTP: GET /note/week-pdf?userId=...&startDate=...&endDate=...
//
// The document is rendered into memory first: a rendering failure must still
// be answerable with a JSON 500, which is impossible once bytes are on the wire.
func (h *NoteHandler) HandleWeekReport(w http.ResponseWriter, r *http.Request) {
	q := reportQuery{
		UserID:    r.URL.Query().Get("userId"),
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}
	if err := h.validateQuery(r, q, q.UserID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	rep, err := h.reports.Build(r.Context(), q.UserID, q.StartDate, q.EndDate)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reports.Render(&buf, rep); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	w.Header().Set("Content-Type", h.reports.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.reports.FileName(rep),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("report write interrupted",
			slog.String("userID", q.UserID),
			slog.String("error", err.Error()),
		)
	}
}

func (h *NoteHandler) validateQuery(r *http.Request, q any, userID string) error {
	if err := validateStruct(q); err != nil {
		return err
	}
	return h.authorize(r.Context(), userID)
}

// authorize allows the request when the session user is userID or an admin.
func (h *NoteHandler) authorize(ctx context.Context, userID string) error {
	return authorizeFor(ctx, h.users, userID)
}

// authorizeFor is shared by the handlers that take a target user ID.
func authorizeFor(ctx context.Context, users *service.UserService, userID string) error {
	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return apperror.Forbidden("Access forbidden")
	}
	if callerID == userID {
		return nil
	}

	isAdmin, err := users.IsAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperror.Forbidden("Access forbidden")
	}
	return nil
}

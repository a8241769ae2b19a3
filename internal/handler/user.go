package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/service"
)

// UserHandler serves the /users routes and profile completion.
// Admin checks live in UserService; the handler only passes the caller's ID.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// adminUserView is one row of the admin user list.
type adminUserView struct {
	ID           string  `json:"id"`
	FullName     string  `json:"FullName"`
	Points       int64   `json:"points"`
	Email        string  `json:"email"`
	LastNoteDate *string `json:"lastNoteDate"`
	Photo        string  `json:"photo"`
}

type uidRequest struct {
	UID string `json:"uid" validate:"required"`
}

// HandleTopUsers returns the public leaderboard.
//
// HTTP: GET /users/top-users?limit=10
func (h *UserHandler) HandleTopUsers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, h.logger, r, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.users.TopUsers(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.LeaderboardEntry{"users": entries})
}

// HandleAllUsers lists every user. Admin only.
//
// HTTP: GET /users/all-users
func (h *UserHandler) HandleAllUsers(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	users, err := h.users.AllUsers(r.Context(), callerID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	views := make([]adminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, adminUserView{
			ID:           u.ID,
			FullName:     u.Name,
			Points:       u.Points,
			Email:        u.Email,
			LastNoteDate: u.LastNoteDate,
			Photo:        u.Photo,
		})
	}
	writeJSON(w, http.StatusOK, map[string][]adminUserView{"users": views})
}

// HandleGetUser returns one user's full record.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}

// HandleResetPoints sets a user's points to zero. Admin only.
//
// HTTP: POST /users/reset-points
// BODY: {"uid":"..."}
func (h *UserHandler) HandleResetPoints(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.decodeUID(w, r)
	if !ok {
		return
	}
	callerID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.ResetPoints(r.Context(), callerID, uid); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDeleteUser removes a user's record. Their notes are kept. Admin only.
//
// HTTP: DELETE /users/delete-user
// BODY: {"uid":"..."}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.decodeUID(w, r)
	if !ok {
		return
	}
	callerID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.DeleteUser(r.Context(), callerID, uid); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *UserHandler) decodeUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req uidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// Keep the message the admin UI already shows.
		if errors.Is(err, apperror.ErrValidation) {
			err = apperror.ValidationFailed("uid", "Missing user ID")
		}
		writeError(w, h.logger, r, err)
		return "", false
	}
	return req.UID, true
}

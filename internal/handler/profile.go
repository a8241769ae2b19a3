package handler

import (
	"net/http"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/model"
)

// The JSON keys are capitalized because the profile form posts them that way.
type completeProfileRequest struct {
	FullName    string `json:"FullName"`
	Age         string `json:"Age"`
	Rahat       string `json:"Rahat"`
	PhoneNumber string `json:"PhoneNumber"`
}

// HandleCompleteProfile stores the profile fields a new user fills in after
// their first login.
//
// HTTP: POST /profile/complete-profile
// BODY: {"FullName":"...","Age":"...","Rahat":"...","PhoneNumber":"..."}
func (h *UserHandler) HandleCompleteProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req completeProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, apperror.ValidationFailed("body", "All fields are required"))
		return
	}

	err := h.users.CompleteProfile(r.Context(), callerID, model.Profile{
		FullName:    req.FullName,
		Age:         req.Age,
		Rahat:       req.Rahat,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/weekly-notes/internal/apperror"
	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/service"
)

const (
	stateCookie    = "oauth_state"
	stateCookieAge = 10 * time.Minute
)

// IdentityProvider is the OAuth half of the login flow. *auth.GoogleProvider
// satisfies it; tests substitute a fake so no request leaves the process.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthHandlerConfig carries the HTTP-level settings of the login flow.
type AuthHandlerConfig struct {
	// FrontendURL is prefixed to the landing path after login, without a
	// trailing slash ("http://localhost:3000").
	FrontendURL   string
	SessionTTL    time.Duration
	SecureCookies bool
}

// AuthHandler manages the Google login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGoogleLogin    → redirect the browser to Google's consent page
//   - HandleGoogleCallback → verify state, exchange the code, set the cookie
//   - HandleLogout         → clear the cookie
//   - HandleCheckSession   → tell the frontend who, if anyone, is logged in
type AuthHandler struct {
	provider IdentityProvider
	auth     *service.AuthService
	users    *service.UserService
	cfg      AuthHandlerConfig
	logger   *slog.Logger
}

func NewAuthHandler(
	provider IdentityProvider,
	authService *service.AuthService,
	users *service.UserService,
	cfg AuthHandlerConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		auth:     authService,
		users:    users,
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleGoogleLogin redirects the user to Google.
//
// HTTP: GET /auth/google
//
// CSRF PROTECTION VIA STATE:
// A random state value goes both into a short-lived HttpOnly cookie and into
// the authorization URL. The callback only proceeds when the two match.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the login.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for the Google profile
//  3. Create or refresh the user, issue a session token
//  4. Set the session cookie and redirect to the frontend: new non-admin
//     users to /complete-profile, everyone else to /dashboard
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: invalid state")
		writeError(w, h.logger, r, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.cfg.FrontendURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, r, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	gUser, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	result, err := h.auth.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.cfg.SessionTTL, h.cfg.SecureCookies)
	http.Redirect(w, r, h.cfg.FrontendURL+result.LandingPath(), http.StatusSeeOther)
}

// HandleLogout clears the session cookie. The token itself stays valid
// until it expires, but the browser no longer sends it.
//
// HTTP: GET /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cfg.SecureCookies)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
}

// HandleCheckSession reports whether the request carries a valid session.
// A valid token whose user has since been deleted counts as logged out.
//
// HTTP: GET /auth/check-session (behind OptionalAuth)
func (h *AuthHandler) HandleCheckSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, sessionResponse{})
			return
		}
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: user})
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/handler"
	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/report/pdf"
	"github.com/sakif/weekly-notes/internal/repository/sqlite"
	"github.com/sakif/weekly-notes/internal/service"
)

// submittedAt is the clock every test environment runs on: the Saturday
// after the Friday 2024-06-07.
var submittedAt = time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)

const testFrontend = "http://frontend.test"

// testEnv wires real services over an in-memory SQLite database, the same
// way the server does, minus the router.
type testEnv struct {
	db       *sqlite.DB
	tokens   *auth.TokenService
	provider *fakeProvider
	notes    *handler.NoteHandler
	users    *handler.UserHandler
	auth     *handler.AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	formatter, err := pdf.New("")
	require.NoError(t, err)

	now := func() time.Time { return submittedAt }
	noteSvc := service.NewNoteService(db, service.DefaultWeeklyUnique, now, logger)
	userSvc := service.NewUserService(db, logger)
	reportSvc := service.NewReportService(noteSvc, userSvc, formatter, logger)
	authSvc := service.NewAuthService(db, tokens, service.AuthOptions{
		AdminEmails: []string{"admin@example.com"},
		Location:    time.UTC,
		Now:         now,
	}, logger)

	provider := &fakeProvider{}

	return &testEnv{
		db:       db,
		tokens:   tokens,
		provider: provider,
		notes:    handler.NewNoteHandler(noteSvc, reportSvc, userSvc, logger),
		users:    handler.NewUserHandler(userSvc, logger),
		auth: handler.NewAuthHandler(provider, authSvc, userSvc, handler.AuthHandlerConfig{
			FrontendURL: testFrontend,
			SessionTTL:  time.Hour,
		}, logger),
	}
}

func (e *testEnv) addUser(t *testing.T, u model.User) {
	t.Helper()
	require.NoError(t, e.db.CreateUser(context.Background(), &u))
}

func (e *testEnv) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.db.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// fakeProvider stands in for Google.
type fakeProvider struct {
	user *auth.GoogleUser
	err  error
	code string // last code passed to Exchange
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*auth.GoogleUser, error) {
	p.code = code
	if p.err != nil {
		return nil, p.err
	}
	return p.user, nil
}

// newRequest builds a request, JSON-encoding body when it is not a string.
func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// as marks the request as coming from a logged-in user.
func as(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

// serve runs h behind a chi router so URL parameters resolve.
func serve(pattern string, method string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func record(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[handler.ErrorResponse](t, rr).Error
}

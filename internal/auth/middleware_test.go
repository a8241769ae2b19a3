package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoUser writes the context user ID (or "anonymous") as the body.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		id = "anonymous"
	}
	w.Write([]byte(id))
})

func requestWithCookie(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: value})
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Generate("user-1")
	expired, _ := ts.GenerateWithDuration("user-1", -time.Minute)

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"valid session", valid, http.StatusOK, "user-1"},
		{"no cookie", "", http.StatusUnauthorized, `{"error":"User not authenticated"}` + "\n"},
		{"expired", expired, http.StatusUnauthorized, `{"error":"User not authenticated"}` + "\n"},
		{"garbage", "nope", http.StatusUnauthorized, `{"error":"User not authenticated"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequireAuth(ts)(echoUser).ServeHTTP(rec, requestWithCookie(tt.cookie))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Generate("user-1")

	rec := httptest.NewRecorder()
	OptionalAuth(ts)(echoUser).ServeHTTP(rec, requestWithCookie(valid))
	assert.Equal(t, "user-1", rec.Body.String())

	rec = httptest.NewRecorder()
	OptionalAuth(ts)(echoUser).ServeHTTP(rec, requestWithCookie("garbage"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "jwt-value", 2*time.Hour, true)
	ClearSessionCookie(rec, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	set := cookies[0]
	assert.Equal(t, SessionCookie, set.Name)
	assert.Equal(t, "jwt-value", set.Value)
	assert.Equal(t, 7200, set.MaxAge)
	assert.True(t, set.HttpOnly)
	assert.True(t, set.Secure)

	cleared := cookies[1]
	assert.Equal(t, "", cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

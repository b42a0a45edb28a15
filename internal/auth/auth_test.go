package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
)

func testManager() *Manager {
	return NewManager(config.AuthConfig{
		Enabled:       true,
		AllowedDomain: "mclemoreauction.com",
		CookieName:    "mclemore_session",
		CookieMaxAge:  3600,
	}, "https://tools.mclemoreauction.com")
}

// issueSession plants a session directly, bypassing the OAuth exchange.
func issueSession(m *Manager, id string, expires time.Time) {
	m.mu.Lock()
	m.sessions[id] = &Session{
		Email:     "will@mclemoreauction.com",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	m.mu.Unlock()
}

func TestHandleLogin_SetsStateAndRedirects(t *testing.T) {
	m := testManager()
	rec := httptest.NewRecorder()
	m.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.NotEmpty(t, stateCookie.Value)
	assert.True(t, stateCookie.HttpOnly)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "state="+stateCookie.Value)
	assert.Contains(t, location, "hd=mclemoreauction.com")
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	m := testManager()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=wrong&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "right"})

	rec := httptest.NewRecorder()
	m.HandleCallback(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=invalid_state")
}

func TestGetSession(t *testing.T) {
	m := testManager()
	issueSession(m, "sid", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.AddCookie(&http.Cookie{Name: "mclemore_session", Value: "sid"})

	session := m.GetSession(req)
	require.NotNil(t, session)
	assert.Equal(t, "will@mclemoreauction.com", session.Email)
}

func TestGetSession_Expired(t *testing.T) {
	m := testManager()
	issueSession(m, "sid", time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mclemore_session", Value: "sid"})

	assert.Nil(t, m.GetSession(req))
	// The expired entry is gone.
	m.mu.RLock()
	_, ok := m.sessions["sid"]
	m.mu.RUnlock()
	assert.False(t, ok)
}

func TestMiddleware(t *testing.T) {
	m := testManager()
	issueSession(m, "sid", time.Now().Add(time.Hour))

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Without a cookie: JSON 401.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/letters/2524", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	// With a live session: passes through.
	req := httptest.NewRequest(http.MethodGet, "/api/letters/2524", nil)
	req.AddCookie(&http.Cookie{Name: "mclemore_session", Value: "sid"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	m := testManager()
	issueSession(m, "sid", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "mclemore_session", Value: "sid"})

	rec := httptest.NewRecorder()
	m.HandleLogout(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Nil(t, m.GetSession(req))
}

func TestSessionJanitor(t *testing.T) {
	m := testManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartSessionJanitor(ctx)

	issueSession(m, "old", time.Now().Add(-time.Hour))
	// The janitor ticks every 5 minutes; expiry is also enforced on read, so
	// the session is dead either way.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mclemore_session", Value: "old"})
	assert.Nil(t, m.GetSession(req))
}

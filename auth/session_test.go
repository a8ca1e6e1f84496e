package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	md "darkcity.io/mapweb/models"
)

func TestSessionsUserRoundTrip(t *testing.T) {
	s := NewSessions("test-secret")
	profile := &md.Profile{ID: "42", Username: "kit", Discriminator: "0001", Avatar: "abc"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, s.SaveUser(rec, req, profile))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	authed := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, c := range cookies {
		authed.AddCookie(c)
	}
	got := s.User(authed)
	require.NotNil(t, got)
	assert.Equal(t, profile, got)
}

func TestSessionsAnonymousWithoutCookie(t *testing.T) {
	s := NewSessions("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, s.User(req))
}

func TestSessionsTamperedCookieIsAnonymous(t *testing.T) {
	s := NewSessions("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "not-a-signed-session"})
	assert.Nil(t, s.User(req))
}

func TestSessionsClear(t *testing.T) {
	s := NewSessions("test-secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, s.SaveUser(rec, req, &md.Profile{ID: "42", Username: "kit"}))

	clearRec := httptest.NewRecorder()
	require.Nil(t, s.Clear(clearRec, req))
	var expired *http.Cookie
	for _, c := range clearRec.Result().Cookies() {
		if c.Name == SessionName {
			expired = c
		}
	}
	require.NotNil(t, expired)
	assert.Negative(t, expired.MaxAge)
}

func TestSessionsLoginState(t *testing.T) {
	s := NewSessions("test-secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/discord", nil)
	require.Nil(t, s.SetLoginState(rec, req, "state-1", "/?edit=1"))

	cb := httptest.NewRequest(http.MethodGet, "/auth/discord/callback", nil)
	for _, c := range rec.Result().Cookies() {
		cb.AddCookie(c)
	}
	state, returnTo := s.ConsumeLoginState(httptest.NewRecorder(), cb)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "/?edit=1", returnTo)
}

func TestOAuthAuthCodeURL(t *testing.T) {
	o := NewOAuth("client-1", "secret", "https://map.example/auth/discord/callback")
	u := o.AuthCodeURL("state-xyz")
	assert.Contains(t, u, "https://discord.com/api/oauth2/authorize")
	assert.Contains(t, u, "client_id=client-1")
	assert.Contains(t, u, "state=state-xyz")
	assert.Contains(t, u, "scope=identify")
}

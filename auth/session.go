package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	pe "darkcity.io/mapweb/errors"
	md "darkcity.io/mapweb/models"
)

const (
	SessionName = "darkcity.sid"

	sessionKeyProfile  = "profile"
	sessionKeyState    = "oauthState"
	sessionKeyReturnTo = "returnTo"

	sessionMaxAgeSec = 7 * 24 * 60 * 60

	// development fallback only; production deployments must set SESSION_SECRET
	devSessionSecret = "darkcity-dev-session-secret"
)

// Sessions wraps the cookie-backed session store. The profile is serialized as JSON
// into the (signed) session cookie; the caller's role is never stored.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string) *Sessions {
	if secret == "" {
		log.Warn("SESSION_SECRET not set; using the development-only fallback secret")
		secret = devSessionSecret
	}
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAgeSec,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: cs}
}

// User returns the authenticated profile attached to the request, or nil for an
// anonymous caller. A malformed or tampered cookie counts as anonymous.
func (s *Sessions) User(r *http.Request) *md.Profile {
	sess, err := s.store.Get(r, SessionName)
	if err != nil {
		return nil
	}
	raw, ok := sess.Values[sessionKeyProfile].(string)
	if !ok {
		return nil
	}
	var p md.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil
	}
	if p.Anonymous() {
		return nil
	}
	return &p
}

// SaveUser persists the profile into the session, marking the caller authenticated.
func (s *Sessions) SaveUser(w http.ResponseWriter, r *http.Request, p *md.Profile) *pe.Err {
	sess, _ := s.store.Get(r, SessionName)
	raw, err := json.Marshal(p)
	if err != nil {
		return pe.NewServiceFailure("error serializing session profile").WithCause(err)
	}
	sess.Values[sessionKeyProfile] = string(raw)
	if err := sess.Save(r, w); err != nil {
		return pe.NewServiceFailure("error saving session").WithCause(err)
	}
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) *pe.Err {
	sess, _ := s.store.Get(r, SessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return pe.NewServiceFailure("error clearing session").WithCause(err)
	}
	return nil
}

// SetLoginState stashes the OAuth CSRF state and the post-login return path until the
// provider calls back.
func (s *Sessions) SetLoginState(w http.ResponseWriter, r *http.Request, state, returnTo string) *pe.Err {
	sess, _ := s.store.Get(r, SessionName)
	sess.Values[sessionKeyState] = state
	sess.Values[sessionKeyReturnTo] = returnTo
	if err := sess.Save(r, w); err != nil {
		return pe.NewServiceFailure("error saving login state").WithCause(err)
	}
	return nil
}

// ConsumeLoginState returns and clears the stashed OAuth state and return path.
func (s *Sessions) ConsumeLoginState(w http.ResponseWriter, r *http.Request) (state, returnTo string) {
	sess, err := s.store.Get(r, SessionName)
	if err != nil {
		return "", ""
	}
	state, _ = sess.Values[sessionKeyState].(string)
	returnTo, _ = sess.Values[sessionKeyReturnTo].(string)
	delete(sess.Values, sessionKeyState)
	delete(sess.Values, sessionKeyReturnTo)
	_ = sess.Save(r, w)
	return state, returnTo
}

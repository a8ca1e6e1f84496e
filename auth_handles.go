package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	hr "github.com/julienschmidt/httprouter"

	"darkcity.io/mapweb/common/logging"
	pe "darkcity.io/mapweb/errors"
)

// HandleAuthLogin kicks off the Discord authorization-code flow. The anti-forgery
// state and the post-login destination ride in the session cookie until the
// provider calls back.
func (s *mapServer) HandleAuthLogin() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		state, err := newLoginState()
		if err != nil {
			clog.WithError(err).Error("error generating login state")
			respondErr(w, err)
			return
		}
		returnTo := sanitizeReturnTo(r.URL.Query().Get("returnTo"))
		if err := s.Sessions.SetLoginState(w, r, state, returnTo); err != nil {
			clog.WithError(err).Error("error persisting login state")
			respondErr(w, err)
			return
		}
		http.Redirect(w, r, s.OAuth.AuthCodeURL(state), http.StatusFound)
	}
}

func (s *mapServer) HandleAuthCallback() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		wantState, returnTo := s.Sessions.ConsumeLoginState(w, r)
		gotState := r.URL.Query().Get("state")
		if wantState == "" || gotState != wantState {
			respondErr(w, pe.NewBadInput("login state mismatch"))
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			respondErr(w, pe.NewBadInput("missing authorization code"))
			return
		}
		tok, err := s.OAuth.Exchange(r.Context(), code)
		if err != nil {
			clog.WithError(err).Error("error completing oauth exchange")
			respondErr(w, err)
			return
		}
		profile, err := s.OAuth.FetchProfile(tok.AccessToken)
		if err != nil {
			clog.WithError(err).Error("error fetching discord profile")
			respondErr(w, err)
			return
		}
		if err := s.Sessions.SaveUser(w, r, profile); err != nil {
			clog.WithError(err).WithField("userID", profile.ID).Error("error saving session")
			respondErr(w, err)
			return
		}
		clog.WithField("userID", profile.ID).Info("user logged in")
		if returnTo == "" {
			returnTo = "/"
		}
		http.Redirect(w, r, returnTo, http.StatusFound)
	}
}

func (s *mapServer) HandleAuthLogout() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		u := s.Sessions.User(r)
		if err := s.Sessions.Clear(w, r); err != nil {
			clog.WithError(err).Error("error clearing session")
			respondErr(w, err)
			return
		}
		if !u.Anonymous() {
			s.Resolver.Invalidate(u.ID)
		}
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func newLoginState() (string, *pe.Err) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", pe.NewServiceFailure("error reading random source").WithCause(err)
	}
	return hex.EncodeToString(b), nil
}

// sanitizeReturnTo keeps post-login redirects on this origin. Anything not a plain
// absolute path collapses to the root.
func sanitizeReturnTo(v string) string {
	if !strings.HasPrefix(v, "/") || strings.HasPrefix(v, "//") {
		return "/"
	}
	return v
}

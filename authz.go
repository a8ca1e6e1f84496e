package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	hr "github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"darkcity.io/mapweb/auth"
	"darkcity.io/mapweb/common/logging"
	pe "darkcity.io/mapweb/errors"
	md "darkcity.io/mapweb/models"
)

type ctxKey int

const (
	ctxKeyRole ctxKey = iota
	ctxKeyPin
)

type errBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WithFuncName().WithError(err).Error("error encoding response body")
	}
}

func respondErr(w http.ResponseWriter, err *pe.Err) {
	respondJSON(w, err.StatusCode(), errBody{Error: string(err.Code), Message: err.Error()})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// redirectToLogin sends a browser navigation into the OAuth flow, preserving the
// requested path so the user lands back where they started.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth/discord?returnTo="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

func (s *mapServer) denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		respondErr(w, pe.NewUnauthenticated("please login with Discord to access this resource"))
		return
	}
	redirectToLogin(w, r)
}

// RequireAuth runs the wrapped handler only for authenticated callers.
func (s *mapServer) RequireAuth(h hr.Handle) hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps hr.Params) {
		if s.Sessions.User(r).Anonymous() {
			s.denyUnauthenticated(w, r)
			return
		}
		h(w, r, ps)
	}
}

// RequirePermission runs the wrapped handler only when the caller's resolved role
// grants the permission. The resolved role is attached to the request context.
func (s *mapServer) RequirePermission(perm auth.Permission, h hr.Handle) hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, ps hr.Params) {
		u := s.Sessions.User(r)
		if u.Anonymous() {
			s.denyUnauthenticated(w, r)
			return
		}
		role, err := s.Resolver.Resolve(u.ID)
		if err != nil {
			clog.WithError(err).WithField("userID", u.ID).Error("error resolving caller role")
			respondErr(w, err)
			return
		}
		if !auth.HasPermission(role, perm) {
			clog.WithFields(log.Fields{
				"userID":     u.ID,
				"role":       role.String(),
				"permission": perm,
			}).Warning("access denied")
			respondErr(w, pe.NewPermissionDenied(
				fmt.Sprintf("you need the %s permission to access this resource", perm)))
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRole, role)), ps)
	}
}

// RequireOwnerOrModerator loads the pin named by the :id route param and runs the
// wrapped handler only for the pin's owner or a moderator/admin. The loaded pin is
// attached to the request context so the handler does not fetch it twice.
func (s *mapServer) RequireOwnerOrModerator(h hr.Handle) hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, ps hr.Params) {
		u := s.Sessions.User(r)
		if u.Anonymous() {
			s.denyUnauthenticated(w, r)
			return
		}
		pin, perr := s.Pins.Get(r.Context(), ps.ByName("id"))
		if perr != nil {
			respondErr(w, perr)
			return
		}
		role, perr := s.Resolver.Resolve(u.ID)
		if perr != nil {
			clog.WithError(perr).WithField("userID", u.ID).Error("error resolving caller role")
			respondErr(w, perr)
			return
		}
		if !role.AtLeast(auth.RoleModerator) && !pin.OwnedBy(u.ID) {
			clog.WithFields(log.Fields{
				"userID":  u.ID,
				"pinID":   pin.ID,
				"ownerID": pin.OwnerID,
			}).Warning("ownership access denied")
			respondErr(w, pe.NewPermissionDenied("you can only modify your own pins"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyRole, role)
		ctx = context.WithValue(ctx, ctxKeyPin, pin)
		h(w, r.WithContext(ctx), ps)
	}
}

func roleFromContext(ctx context.Context) auth.Role {
	role, _ := ctx.Value(ctxKeyRole).(auth.Role)
	return role
}

func pinFromContext(ctx context.Context) *md.Pin {
	p, _ := ctx.Value(ctxKeyPin).(*md.Pin)
	return p
}

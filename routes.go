package main

import (
	"net/http"

	hr "github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"darkcity.io/mapweb/auth"
	mw "darkcity.io/mapweb/common/middleware"
)

// set up routes
func (s *mapServer) SetupMux() {
	r := hr.New()
	wrap := func(route string, h hr.Handle) hr.Handle {
		ms := []mw.Middleware{mw.PanicRecoverer(), mw.RequestLogger()}
		if s.Metrics != nil {
			ms = append(ms, s.Metrics.Instrument(route))
		}
		return mw.Chain(h, ms...)
	}
	r.GET("/", wrap("index", s.HandleGetIndex()))
	r.GET("/healthz", wrap("healthz", s.HandleHealthz()))
	r.GET("/api/me", wrap("me", s.HandleGetMe()))
	r.GET("/api/map.glb", wrap("map-glb", s.HandleGetMapModel()))
	// auth
	r.GET("/auth/discord", wrap("auth-login", s.HandleAuthLogin()))
	r.GET("/auth/discord/callback", wrap("auth-callback", s.HandleAuthCallback()))
	r.POST("/auth/logout", wrap("auth-logout", s.HandleAuthLogout()))
	// districts
	r.GET("/api/districts", wrap("districts-list", s.HandleListDistricts()))
	r.GET("/api/districts/config", wrap("districts-config-get", s.HandleGetDistrictsConfig()))
	r.PUT("/api/districts/config", wrap("districts-config-put",
		s.RequirePermission(auth.PermEditMapConfig, s.HandlePutDistrictsConfig())))
	// pins
	r.GET("/api/pins", wrap("pins-list", s.HandleListPins()))
	r.POST("/api/pins", wrap("pins-create",
		s.RequirePermission(auth.PermCreatePin, s.HandleCreatePin())))
	r.GET("/api/pins/:id", wrap("pins-get", s.HandleGetPin()))
	r.PUT("/api/pins/:id", wrap("pins-update",
		s.RequireOwnerOrModerator(s.HandleUpdatePin())))
	r.DELETE("/api/pins/:id", wrap("pins-delete",
		s.RequireOwnerOrModerator(s.HandleDeletePin())))
	// static assets
	r.Handler(
		http.MethodGet,
		"/static/*filepath",
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.StaticDir))),
	)
	if s.Registry != nil {
		r.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}
	s.Router = r
}

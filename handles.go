package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	hr "github.com/julienschmidt/httprouter"
	"github.com/segmentio/ksuid"
	"github.com/spf13/viper"

	"darkcity.io/mapweb/auth"
	"darkcity.io/mapweb/common/logging"
	cst "darkcity.io/mapweb/constants"
	dst "darkcity.io/mapweb/districts"
	pe "darkcity.io/mapweb/errors"
	md "darkcity.io/mapweb/models"
)

// HandleGetIndex serves the app shell. Opening the shell in edit mode requires a
// moderator or admin role; a plain view is public.
func (s *mapServer) HandleGetIndex() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		if r.URL.Query().Get("edit") == "1" {
			u := s.Sessions.User(r)
			if u.Anonymous() {
				redirectToLogin(w, r)
				return
			}
			role, err := s.Resolver.Resolve(u.ID)
			if err != nil {
				clog.WithError(err).WithField("userID", u.ID).Error("error resolving caller role")
				respondErr(w, err)
				return
			}
			if !role.AtLeast(auth.RoleModerator) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}
		}
		http.ServeFile(w, r, filepath.Join(s.StaticDir, "index.html"))
	}
}

func (s *mapServer) HandleHealthz() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			respondErr(w, pe.NewDependencyFailure("database unreachable").WithCause(err))
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleGetMe reports the caller's session and resolved role. Anonymous callers get
// the public role rather than an error so the client can render the logged-out shell.
func (s *mapServer) HandleGetMe() hr.Handle {
	type view struct {
		Authenticated bool              `json:"authenticated"`
		User          *md.Profile       `json:"user,omitempty"`
		Role          string            `json:"role"`
		Permissions   []auth.Permission `json:"permissions"`
	}
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		u := s.Sessions.User(r)
		if u.Anonymous() {
			respondJSON(w, http.StatusOK, view{
				Role:        auth.RolePublic.String(),
				Permissions: auth.Permissions(auth.RolePublic),
			})
			return
		}
		role, err := s.Resolver.Resolve(u.ID)
		if err != nil {
			clog.WithError(err).WithField("userID", u.ID).Error("error resolving caller role")
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, view{
			Authenticated: true,
			User:          u,
			Role:          role.String(),
			Permissions:   auth.Permissions(role),
		})
	}
}

// -------------- districts --------------

func (s *mapServer) HandleListDistricts() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		respondJSON(w, http.StatusOK, dst.All)
	}
}

func (s *mapServer) HandleGetDistrictsConfig() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		cfg, err := s.Cfg.Get(r.Context())
		if err != nil {
			if err.Code == pe.ErrCodeNotFound {
				// nothing saved yet; hand the client the compiled-in layout
				def := dst.DefaultConfig()
				respondJSON(w, http.StatusOK, &def)
				return
			}
			clog.WithError(err).Error("error loading district configuration")
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, cfg)
	}
}

func (s *mapServer) HandlePutDistrictsConfig() hr.Handle {
	clog := logging.WithFuncName()
	maxReqBodySize := viper.GetInt64(cst.EnvReqBodySizeMaxByte)
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		var cfg dst.Config
		if err := decodeJSONBody(w, r, maxReqBodySize, &cfg); err != nil {
			respondErr(w, err)
			return
		}
		if err := cfg.Validate(); err != nil {
			respondErr(w, pe.NewBadInput(err.Error()))
			return
		}
		u := s.Sessions.User(r)
		if err := s.Cfg.Put(r.Context(), &cfg, u.ID); err != nil {
			clog.WithError(err).WithField("userID", u.ID).Error("error saving district configuration")
			respondErr(w, err)
			return
		}
		clog.WithField("userID", u.ID).Info("district configuration saved")
		respondJSON(w, http.StatusOK, &cfg)
	}
}

// -------------- pins --------------

type pinRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	DistrictID  string   `json:"districtId"`
	Pos         *md.Vec3 `json:"pos"`
}

type pinUpdateRequest struct {
	Name        *string  `json:"name"`
	Type        *string  `json:"type"`
	Description *string  `json:"description"`
	DistrictID  *string  `json:"districtId"`
	Pos         *md.Vec3 `json:"pos"`
}

func (s *mapServer) HandleListPins() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		pins, err := s.Pins.List(r.Context())
		if err != nil {
			clog.WithError(err).Error("error listing pins")
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pins)
	}
}

func (s *mapServer) HandleGetPin() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, ps hr.Params) {
		p, err := s.Pins.Get(r.Context(), ps.ByName("id"))
		if err != nil {
			if err.Code != pe.ErrCodeNotFound {
				clog.WithError(err).WithField("pinID", ps.ByName("id")).Error("error getting pin")
			}
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

func (s *mapServer) HandleCreatePin() hr.Handle {
	clog := logging.WithFuncName().WithField("httpMethod", http.MethodPost)
	maxReqBodySize := viper.GetInt64(cst.EnvReqBodySizeMaxByte)
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		u := s.Sessions.User(r)
		var req pinRequest
		if err := decodeJSONBody(w, r, maxReqBodySize, &req); err != nil {
			respondErr(w, err)
			return
		}
		p, err := s.buildPin(r.Context(), u, &req)
		if err != nil {
			clog.WithError(err).Error("error building pin from input data")
			respondErr(w, err)
			return
		}
		if err := s.Pins.Create(r.Context(), p); err != nil {
			if err.Code != pe.ErrCodeExisted {
				clog.WithError(err).WithField("pinID", p.ID).Error("error saving pin")
			}
			respondErr(w, err)
			return
		}
		clog.WithFields(map[string]interface{}{"pinID": p.ID, "ownerID": p.OwnerID}).Info("pin created")
		respondJSON(w, http.StatusOK, p)
	}
}

// buildPin assembles and validates pin data from the request body. A pin created
// without a district gets one assigned by the point-in-zone test when the saved
// layout carries the model footprint.
func (s *mapServer) buildPin(ctx context.Context, u *md.Profile, req *pinRequest) (*md.Pin, *pe.Err) {
	if req.Pos == nil {
		return nil, pe.NewBadInput("missing required field pos")
	}
	if req.DistrictID != "" {
		if _, ok := dst.ByID(req.DistrictID); !ok {
			return nil, pe.NewBadInput(fmt.Sprintf("unknown district %q", req.DistrictID))
		}
	}
	id := req.ID
	if id == "" {
		kid, err := ksuid.NewRandom()
		if err != nil {
			return nil, pe.NewServiceFailure("fail to generate pin id").WithCause(err)
		}
		id = kid.String()
	}
	now := time.Now().UTC()
	p := &md.Pin{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		DistrictID:  req.DistrictID,
		Pos:         *req.Pos,
		OwnerID:     u.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.DistrictID == "" {
		p.DistrictID = s.assignDistrict(ctx, p.Pos)
	}
	return p, nil
}

// assignDistrict maps a world position to a district using the saved zone layout.
// Without a saved layout (or one without the model footprint) the pin stays
// unassigned, as does a position inside zero or several zones.
func (s *mapServer) assignDistrict(ctx context.Context, pos md.Vec3) string {
	cfg, err := s.Cfg.Get(ctx)
	if err != nil || cfg.Bounds == nil {
		return ""
	}
	id, ok := cfg.Resolve(dst.WorldToNorm(pos.X, pos.Z, *cfg.Bounds))
	if !ok {
		return ""
	}
	return id
}

func (s *mapServer) HandleUpdatePin() hr.Handle {
	clog := logging.WithFuncName().WithField("httpMethod", http.MethodPut)
	maxReqBodySize := viper.GetInt64(cst.EnvReqBodySizeMaxByte)
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		p := pinFromContext(r.Context())
		var req pinUpdateRequest
		if err := decodeJSONBody(w, r, maxReqBodySize, &req); err != nil {
			respondErr(w, err)
			return
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Type != nil {
			p.Type = *req.Type
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.DistrictID != nil {
			if *req.DistrictID != "" {
				if _, ok := dst.ByID(*req.DistrictID); !ok {
					respondErr(w, pe.NewBadInput(fmt.Sprintf("unknown district %q", *req.DistrictID)))
					return
				}
			}
			p.DistrictID = *req.DistrictID
		}
		if req.Pos != nil {
			p.Pos = *req.Pos
		}
		p.UpdatedAt = time.Now().UTC()
		if err := s.Pins.Update(r.Context(), p); err != nil {
			clog.WithError(err).WithField("pinID", p.ID).Error("error updating pin")
			respondErr(w, err)
			return
		}
		clog.WithFields(map[string]interface{}{
			"pinID": p.ID,
			"role":  roleFromContext(r.Context()).String(),
		}).Info("pin updated")
		respondJSON(w, http.StatusOK, p)
	}
}

func (s *mapServer) HandleDeletePin() hr.Handle {
	clog := logging.WithFuncName().WithField("httpMethod", http.MethodDelete)
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		p := pinFromContext(r.Context())
		if err := s.Pins.Delete(r.Context(), p.ID); err != nil {
			clog.WithError(err).WithField("pinID", p.ID).Error("error deleting pin")
			respondErr(w, err)
			return
		}
		clog.WithField("pinID", p.ID).Info("pin deleted")
		respondJSON(w, http.StatusOK, map[string]string{"deleted": p.ID})
	}
}

// -------------- model asset --------------

// HandleGetMapModel streams the city model with conditional-GET support so reloading
// clients do not re-download an unchanged multi-megabyte asset.
func (s *mapServer) HandleGetMapModel() hr.Handle {
	clog := logging.WithFuncName()
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		meta, err := s.Assets.Stat(r.Context(), s.MapGLB)
		if err != nil {
			if err.Code != pe.ErrCodeNotFound {
				clog.WithError(err).Error("error looking up model asset")
			}
			respondErr(w, err)
			return
		}
		w.Header().Set("ETag", meta.ETag)
		w.Header().Set("Last-Modified", meta.UploadedAt.Format(http.TimeFormat))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if match := r.Header.Get("If-None-Match"); match != "" {
			if match == meta.ETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		} else if since := r.Header.Get("If-Modified-Since"); since != "" {
			if t, terr := http.ParseTime(since); terr == nil && !meta.UploadedAt.After(t) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		rc, err := s.Assets.Open(r.Context(), s.MapGLB)
		if err != nil {
			clog.WithError(err).Error("error opening model asset stream")
			respondErr(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "model/gltf-binary")
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Length, 10))
		w.WriteHeader(http.StatusOK)
		if n, cerr := io.Copy(w, rc); cerr != nil {
			// the client may simply have gone away mid-stream
			clog.WithError(cerr).WithField("bytesWritten", n).Warning("error streaming model to requester")
		}
	}
}

// -------------- utils --------------

func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) *pe.Err {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return pe.NewBadInput("error parsing request body").WithCause(err)
	}
	return nil
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

func (s *Server) castRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.ListCasts)
	r.Post("/", s.CreateCast)
	r.Get("/{id}/entries", s.ListCastEntries)
	r.Post("/{id}/reconcile", s.ReconcileCast)
	r.Post("/{id}/normalize", s.NormalizeCast)

	return r
}

// loadOwnedCast parses the id parameter and verifies ownership. Foreign
// casts read as not-found.
func (s *Server) loadOwnedCast(r *http.Request) (*parentcast.Cast, error) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, parentcast.ErrValidationFailed
	}

	cast, err := s.service.GetCast(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if cast.OwnerID != ownerID {
		return nil, parentcast.ErrCastNotFound
	}
	return cast, nil
}

// ListCasts returns the owner's casts with entry count and last entry time.
func (s *Server) ListCasts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	casts, err := s.service.ListCasts(r.Context(), ownerID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if casts == nil {
		casts = []*parentcast.CastWithMeta{}
	}

	render.JSON(w, r, casts)
}

type createCastRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CreateCast creates a new cast for the owner.
func (s *Server) CreateCast(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var req createCastRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}
	if err := validate.Struct(req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}

	cast, err := s.service.CreateCast(r.Context(), parentcast.CreateCastRequest{
		OwnerID: ownerID,
		Title:   req.Title,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, cast)
}

// ListCastEntries returns the cast's live entries, newest first.
func (s *Server) ListCastEntries(w http.ResponseWriter, r *http.Request) {
	cast, err := s.loadOwnedCast(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	entries, err := s.service.ListEntries(r.Context(), cast.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*parentcast.Entry{}
	}

	render.JSON(w, r, entries)
}

// ReconcileCast imports orphaned audio objects as minimal entries.
func (s *Server) ReconcileCast(w http.ResponseWriter, r *http.Request) {
	cast, err := s.loadOwnedCast(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	imported, err := s.service.ReconcileOrphans(r.Context(), cast.OwnerID, cast.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"ok": true, "imported": imported})
}

// NormalizeCast relocates legacy-shaped audio keys to the canonical layout.
func (s *Server) NormalizeCast(w http.ResponseWriter, r *http.Request) {
	cast, err := s.loadOwnedCast(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	moved, err := s.service.NormalizePaths(r.Context(), cast.OwnerID, cast.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"ok": true, "moved": moved})
}

// CreateTodayEntry finds or creates today's entry in the owner's oldest
// cast.
func (s *Server) CreateTodayEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	casts, err := s.service.ListCasts(r.Context(), ownerID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if len(casts) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "no cast found"})
		return
	}

	result, err := s.service.FindOrCreateTodayEntry(r.Context(), ownerID, casts[0].ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"entryId": result.EntryID,
		"created": result.Created,
	})
}

// ListTrash returns the owner's trashed entries.
func (s *Server) ListTrash(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	entries, err := s.service.ListTrash(r.Context(), ownerID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*parentcast.Entry{}
	}

	render.JSON(w, r, entries)
}

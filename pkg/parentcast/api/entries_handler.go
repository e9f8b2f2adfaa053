package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

var validate = validator.New()

func (s *Server) entryRoutes() chi.Router {
	r := chi.NewRouter()

	r.Delete("/{id}", s.SoftDeleteEntry)
	r.Post("/{id}/restore", s.RestoreEntry)
	r.Get("/{id}/audio-url", s.GetAudioURL)
	r.Post("/{id}/audio", s.UploadAudio)
	r.Post("/{id}/image", s.UploadImage)
	r.Put("/{id}/duration", s.SetDuration)
	r.Put("/{id}/reflection", s.UpdateReflection)
	r.Post("/{id}/rules", s.ReplaceEntryRules)
	r.Get("/{id}/rules", s.ListEntryRules)

	return r
}

// loadOwnedEntry parses the id parameter and verifies the entry belongs to
// the session owner. Foreign entries read as not-found.
func (s *Server) loadOwnedEntry(r *http.Request) (*parentcast.Entry, error) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, parentcast.ErrValidationFailed
	}

	entry, err := s.service.GetEntry(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, parentcast.ErrEntryNotFound
	}
	return entry, nil
}

// SoftDeleteEntry trashes an entry and relocates its audio.
func (s *Server) SoftDeleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	deleted, err := s.service.SoftDeleteEntry(r.Context(), entry.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, deleted)
}

// RestoreEntry moves a trashed entry back to the active namespace.
func (s *Server) RestoreEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	restoredEntry, restored, err := s.service.RestoreEntry(r.Context(), entry.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"entry":    restoredEntry,
		"restored": restored,
	})
}

// GetAudioURL issues a signed playback URL for the entry's audio. The url
// field is null when no audio is attached or the store declined; callers
// retry later rather than treating that as fatal.
func (s *Server) GetAudioURL(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ttl := parentcast.DefaultSignedURLTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			s.renderError(w, r, parentcast.ErrValidationFailed)
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	url := s.service.GetPlaybackURL(r.Context(), entry.AudioPath, ttl)
	resp := map[string]interface{}{"url": nil}
	if url != "" {
		resp["url"] = url
	}
	render.JSON(w, r, resp)
}

// UploadAudio attaches a multipart audio file to the entry.
func (s *Server) UploadAudio(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}
	defer file.Close()

	updated, err := s.service.UploadAudio(r.Context(), parentcast.UploadAudioRequest{
		EntryID:     entry.ID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, updated)
}

// UploadImage attaches a multipart image file to the entry.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}
	defer file.Close()

	updated, err := s.service.UploadImage(r.Context(), parentcast.UploadImageRequest{
		EntryID:     entry.ID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, updated)
}

type setDurationRequest struct {
	DurationMS int64 `json:"durationMs" validate:"gte=0"`
}

// SetDuration records the audio duration once.
func (s *Server) SetDuration(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var req setDurationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}
	if err := validate.Struct(req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}

	if err := s.service.SetEntryDuration(r.Context(), entry.ID, req.DurationMS); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"ok": true, "entryId": entry.ID, "durationMs": req.DurationMS})
}

type updateReflectionRequest struct {
	Reflection string `json:"reflection"`
}

// UpdateReflection replaces the entry's free-text reflection.
func (s *Server) UpdateReflection(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var req updateReflectionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}

	if err := s.service.UpdateEntryReflection(r.Context(), entry.ID, req.Reflection); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"ok": true})
}

type replaceRulesRequest struct {
	RuleIDs []string `json:"ruleIds" validate:"dive,uuid"`
}

// ReplaceEntryRules replaces the entry's rule tags wholesale.
func (s *Server) ReplaceEntryRules(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var req replaceRulesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}

	ruleIDs := make([]uuid.UUID, 0, len(req.RuleIDs))
	for _, raw := range req.RuleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.renderError(w, r, parentcast.ErrValidationFailed)
			return
		}
		ruleIDs = append(ruleIDs, id)
	}

	if err := s.service.ReplaceEntryRules(r.Context(), entry.ID, ruleIDs); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"ok":      true,
		"entryId": entry.ID,
		"ruleIds": req.RuleIDs,
	})
}

// ListEntryRules returns the ids of the rules linked to the entry.
func (s *Server) ListEntryRules(w http.ResponseWriter, r *http.Request) {
	entry, err := s.loadOwnedEntry(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ids, err := s.service.ListEntryRules(r.Context(), entry.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"ruleIds": ids})
}

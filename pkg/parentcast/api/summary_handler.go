package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

type summaryRequest struct {
	Transcript string `json:"transcript" validate:"required,min=10"`
}

// GenerateSummary produces the four-field AI summary for a transcript.
func (s *Server) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	if !s.summarizer.Configured() {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "completion api key not configured"})
		return
	}

	var req summaryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, parentcast.ErrValidationFailed)
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "transcript must be at least 10 characters"})
		return
	}

	result, err := s.summarizer.Generate(r.Context(), req.Transcript)
	if err != nil {
		if errors.Is(err, parentcast.ErrSummaryUnavailable) {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": "summary service unavailable"})
			return
		}
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

// ListRules returns the owner's rules sorted by title, seeding the default
// set on first access.
func (s *Server) ListRules(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerID(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	rules, err := s.service.ListRules(r.Context(), ownerID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if rules == nil {
		rules = []*parentcast.Rule{}
	}

	render.JSON(w, r, rules)
}

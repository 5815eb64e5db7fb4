package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

// Catalog handlers

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains := s.catalog.ListDomains()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"domains":  domains,
		"total":    len(domains),
		"branches": s.catalog.Branches(),
		"years":    s.catalog.Years(),
	})
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainId")
	domain := s.catalog.GetDomain(domainID)
	if domain == nil {
		respondError(w, http.StatusNotFound, "not_found", "domain not found")
		return
	}
	respondJSON(w, http.StatusOK, domain)
}

// handleQuestions returns the combined question list for a domain selection
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	primary := r.URL.Query().Get("primary")
	secondary := r.URL.Query().Get("secondary")

	if primary != "" && !s.catalog.Has(primary) {
		respondError(w, http.StatusNotFound, "not_found", "primary domain not found")
		return
	}
	if secondary != "" && !s.catalog.Has(secondary) {
		respondError(w, http.StatusNotFound, "not_found", "secondary domain not found")
		return
	}

	questions := s.catalog.QuestionsFor(primary, secondary)
	if questions == nil {
		questions = []models.Question{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions":        questions,
		"total":            len(questions),
		"secondaryOptions": s.catalog.SecondaryOptions(primary),
	})
}

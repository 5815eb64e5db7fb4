package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/terra-clan/recruitment-portal/internal/intake"
)

const loginPath = "/login"

// mountForm returns the caller's form bound to their session. Visitors
// without a session are redirected to the login page and nil is returned.
func (s *Server) mountForm(w http.ResponseWriter, r *http.Request) *intake.Form {
	clientID := ClientIDFromContext(r.Context())
	department := r.URL.Query().Get("department")

	sess, err := s.gate.Current(r.Context(), clientID)
	if err != nil {
		slog.Error("failed to read session", "error", err, "client_id", clientID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read session")
		return nil
	}

	form := s.forms.Get(clientID)
	if err := form.Mount(sess, department); err != nil {
		q := url.Values{"redirect": {defaultRedirect}}
		if department != "" {
			q.Set("department", department)
		}
		http.Redirect(w, r, loginPath+"?"+q.Encode(), http.StatusSeeOther)
		return nil
	}
	return form
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form := s.mountForm(w, r)
	if form == nil {
		return
	}
	respondJSON(w, http.StatusOK, form.View())
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	form := s.mountForm(w, r)
	if form == nil {
		return
	}

	var changes map[string]string
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := form.SetFields(changes); err != nil {
		switch {
		case errors.Is(err, intake.ErrReadOnlyField):
			respondError(w, http.StatusBadRequest, "read_only_field", err.Error())
		case errors.Is(err, intake.ErrUnknownField):
			respondError(w, http.StatusBadRequest, "unknown_field", err.Error())
		default:
			slog.Error("failed to update form", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update form")
		}
		return
	}

	respondJSON(w, http.StatusOK, form.View())
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	form := s.mountForm(w, r)
	if form == nil {
		return
	}

	err := form.Submit(r.Context())

	var vErr *intake.ValidationError
	var sErr *intake.SubmitError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, form.View())
	case errors.Is(err, intake.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", "a submission is already in progress")
	case errors.Is(err, intake.ErrMissingDomain):
		respondErrorWithData(w, http.StatusUnprocessableEntity, "missing_domain", intake.ReasonMissingDomain, form.View())
	case errors.As(err, &vErr):
		respondErrorWithData(w, http.StatusUnprocessableEntity, "validation_error", "please correct the highlighted fields", form.View())
	case errors.As(err, &sErr):
		respondErrorWithData(w, http.StatusBadGateway, "submission_failed", intake.ReasonSubmitFailed, form.View())
	default:
		slog.Error("unexpected submit error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to submit application")
	}
}

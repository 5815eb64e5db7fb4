package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/terra-clan/recruitment-portal/internal/models"
	"github.com/terra-clan/recruitment-portal/internal/session"
)

const defaultRedirect = "/apply"

// handleLoginPage describes the gate: the accepted mail domain and where the
// visitor goes after logging in.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if !s.catalog.Has(department) {
		department = ""
	}

	respondJSON(w, http.StatusOK, models.GateInfo{
		EmailDomain: s.gate.EmailDomain(),
		Redirect:    safeRedirect(r.URL.Query().Get("redirect")),
		Department:  department,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "email is required")
		return
	}

	clientID := ClientIDFromContext(r.Context())
	sess, err := s.gate.Establish(r.Context(), clientID, email)
	if err != nil {
		if errors.Is(err, session.ErrInvalidEmail) {
			s.metrics.IncrementSessionRejections()
			slog.Info("login rejected", "client_id", clientID)
			respondError(w, http.StatusBadRequest, "invalid_email",
				"Please use your official institutional email address (@"+s.gate.EmailDomain()+")")
			return
		}
		slog.Error("failed to establish session", "error", err, "client_id", clientID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to establish session")
		return
	}

	s.metrics.IncrementSessionsEstablished()
	slog.Info("session established", "client_id", clientID)

	respondJSON(w, http.StatusOK, models.LoginResponse{
		Email:         sess.Email,
		Authenticated: sess.Authenticated,
		Redirect:      s.redirectTarget(req.Redirect, req.Department),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.gate.Current(r.Context(), ClientIDFromContext(r.Context()))
	if err != nil {
		slog.Error("failed to read session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read session")
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "no_session", "no active session")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clientID := ClientIDFromContext(r.Context())
	if err := s.gate.Clear(r.Context(), clientID); err != nil {
		slog.Error("failed to clear session", "error", err, "client_id", clientID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear session")
		return
	}
	s.forms.Drop(clientID)

	respondJSON(w, http.StatusOK, models.Session{})
}

// redirectTarget is the post-login location, carrying a known department
func (s *Server) redirectTarget(redirect, department string) string {
	target := safeRedirect(redirect)
	if department == "" || !s.catalog.Has(department) {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("department", department)
	u.RawQuery = q.Encode()
	return u.String()
}

// safeRedirect keeps redirects on this site
func safeRedirect(redirect string) string {
	if redirect == "" || !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") || strings.Contains(redirect, `\`) {
		return defaultRedirect
	}
	return redirect
}

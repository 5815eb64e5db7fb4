package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/recruitment-portal/internal/gateway"
	"github.com/terra-clan/recruitment-portal/internal/models"
)

const (
	maxSubmitBody = 1 << 20

	msgSheetNotConfigured = "Google Sheet ID not configured"
	msgSubmitFailed       = "Failed to submit application"
)

// handleSubmitApplication appends one flat application record. Its
// request and response shapes are a fixed external contract and do not use
// the API envelope.
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmitBody))
	if err != nil {
		slog.Error("failed to read submission", "error", err)
		writeSubmitResponse(w, http.StatusInternalServerError, models.SubmitResponse{Error: msgSubmitFailed})
		return
	}

	var record models.ApplicationRecord
	if err := json.Unmarshal(body, &record); err != nil {
		slog.Error("failed to decode submission", "error", err)
		writeSubmitResponse(w, http.StatusInternalServerError, models.SubmitResponse{Error: msgSubmitFailed})
		return
	}

	if err := s.submitter.Append(r.Context(), &record); err != nil {
		slog.Error("error submitting application",
			"error", err,
			"kind", gateway.Kind(err),
			"request_id", middleware.GetReqID(r.Context()),
		)
		msg := msgSubmitFailed
		if errors.Is(err, gateway.ErrNotConfigured) {
			msg = msgSheetNotConfigured
		}
		writeSubmitResponse(w, http.StatusInternalServerError, models.SubmitResponse{Error: msg})
		return
	}

	writeSubmitResponse(w, http.StatusOK, models.SubmitResponse{Success: true})
}

func writeSubmitResponse(w http.ResponseWriter, status int, resp models.SubmitResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode submit response", "error", err)
	}
}

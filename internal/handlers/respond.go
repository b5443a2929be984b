package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/repositories"
)

// apiResponse is the envelope every endpoint writes, success or failure.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondData(w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(w, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, apiResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
	})
}

func writeEnvelope(w http.ResponseWriter, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Default().Error("write response", "error", err)
	}
}

// respondDomainError maps sentinel errors from the auth and repository
// layers onto HTTP statuses. Unknown errors become a 500 without leaking
// internals to the client.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenMismatch):
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
	default:
		logging.FromContext(r.Context()).Error(fallback, "error", err)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

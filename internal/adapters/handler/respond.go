package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, logger, http.StatusNotFound, errorResponse{Error: "Ressource non trouvée"})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, logger, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, logger, http.StatusInternalServerError, errorResponse{Error: "Erreur interne du serveur"})
	}
}

// parseDate accepts RFC3339 timestamps and bare dates, the two formats the
// mobile app sends.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

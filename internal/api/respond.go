package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-charity/internal/models"
)

const maxBodyBytes = 1 << 20

// sendJSONResponse is a helper function to send JSON responses
func (h *Handler) sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSONResponse(w, status, map[string]string{"error": msg})
}

// handleError maps the error taxonomy onto status codes. Storage detail is
// logged and never sent to the client.
func (h *Handler) handleError(w http.ResponseWriter, op string, err error, notFound string) {
	var capErr *models.CapacityError
	switch {
	case errors.As(err, &capErr):
		h.sendJSONResponse(w, http.StatusBadRequest, map[string]interface{}{
			"error":          capErr.Error(),
			"remainingSpots": capErr.Remaining,
		})
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrConflict):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		h.sendError(w, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, models.ErrNotFound):
		h.sendError(w, http.StatusNotFound, notFound)
	case errors.Is(err, models.ErrTransient):
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.sendError(w, http.StatusServiceUnavailable, "Service busy, please retry.")
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.sendError(w, http.StatusInternalServerError, "Server Error")
	}
}

// clientMessage strips wrapping context from typed domain errors.
func clientMessage(err error) string {
	var valErr *models.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var regErr *models.RegistrationsExistError
	if errors.As(err, &regErr) {
		return regErr.Error()
	}
	return err.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("", "Invalid request body.")
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

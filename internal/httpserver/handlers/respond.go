package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type invalidPasswordResponse struct {
	Error             string `json:"error"`
	RemainingAttempts int    `json:"remainingAttempts"`
}

type rateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
	Locked     bool   `json:"locked"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from the (size-capped) body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// writeDomainError maps the error taxonomy onto status codes. Storage and
// unexpected errors are logged and reported as a bare 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var rle *domain.RateLimitError
	var ipe *domain.InvalidPasswordError

	switch {
	case errors.As(err, &rle):
		secs := rle.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		msg := "Too many failed attempts. Please try again later."
		writeJSON(w, http.StatusTooManyRequests, rateLimitedResponse{Error: msg, RetryAfter: secs, Locked: rle.Locked})
	case errors.As(err, &ipe):
		writeJSON(w, http.StatusUnauthorized, invalidPasswordResponse{Error: "Invalid password", RemainingAttempts: ipe.Remaining})
	case errors.Is(err, domain.ErrAlreadySetUp):
		writeError(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, publicMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, publicMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// publicMessage strips the class prefix ("validation error: ...") so clients
// only see the specific reason.
func publicMessage(err error) string {
	msg := err.Error()
	for _, class := range []error{domain.ErrValidation, domain.ErrConflict, domain.ErrNotFound} {
		prefix := class.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}

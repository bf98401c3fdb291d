package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/gatepass/internal/apperr"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiFail writes err with the status code matching its kind.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	apiError(w, err.Error(), code)
}

func statusFor(err error) int {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		exhausted  *apperr.ExhaustionError
		format     *apperr.IngestionFormatError
		down       *apperr.UnavailableError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &exhausted):
		return http.StatusServiceUnavailable
	case errors.As(err, &format):
		return http.StatusBadGateway
	case errors.As(err, &down):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v. An empty body leaves v as is.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lisa/internal/config"
)

// ParseJSON decodes the request body into dest, capped at
// config.MaxRequestBodyBytes. Unknown fields are ignored since the web
// client sends whole resources back on update.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// BindJSON is ParseJSON that answers the request itself on failure
// (413 for oversized bodies, 400 otherwise). It reports whether to continue.
func BindJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	err := ParseJSON(w, r, dest)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	RespondError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

package handler

import (
	"net/http"

	"lisa/internal/httputil"
)

// GetMe returns the caller's session
// GET /api/lisa/users/me
func GetMe(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

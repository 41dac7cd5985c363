package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"lisa/internal/auth"
	"lisa/internal/domain/models"
	"lisa/internal/httputil"
)

// AdminList reports whether a user is a configured system admin
type AdminList interface {
	IsSystemAdmin(userID string) bool
}

// publicPaths skip authentication
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware verifies the bearer token and attaches the Session
func AuthMiddleware(verifier auth.TokenVerifier, admins AdminList, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			session := &models.Session{
				UserID:        claims.GetUserID(),
				Email:         claims.Email,
				Name:          claims.Name,
				IsSystemAdmin: claims.IsSystemAdmin() || admins.IsSystemAdmin(claims.GetUserID()),
			}
			next.ServeHTTP(w, httputil.WithSession(r, session))
		})
	}
}

// DevSessionMiddleware attaches a fixed session. Used in dev when no JWKS
// URL is configured.
func DevSessionMiddleware(userID string, admins AdminList, logger *slog.Logger) func(http.Handler) http.Handler {
	logger.Warn("DEV MODE: authentication disabled, all requests run as dev user", "user_id", userID)
	session := models.Session{
		UserID:        userID,
		Name:          "Developer",
		IsSystemAdmin: admins.IsSystemAdmin(userID),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session
			next.ServeHTTP(w, httputil.WithSession(r, &s))
		})
	}
}

// bearerToken reads the token from the Authorization header. EventSource
// cannot set headers, so the events stream may pass it as access_token.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found && token != "" {
		return token, true
	}
	if strings.HasSuffix(r.URL.Path, "/events") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

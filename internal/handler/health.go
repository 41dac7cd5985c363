package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lisa/internal/httputil"
)

// Checker reports the health of one dependency
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// Check calls f
func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Dependency states reported by tenant health
const (
	statusOK            = "ok"
	statusError         = "error"
	statusNotConfigured = "not_configured"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	database Checker
	drive    Checker // nil when Drive is not configured
	timeout  time.Duration
	logger   *slog.Logger
}

// NewHealthHandler creates a health handler. drive may be nil.
func NewHealthHandler(database, drive Checker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		drive:    drive,
		timeout:  3 * time.Second,
		logger:   logger,
	}
}

// HealthCheck is the liveness check
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

type tenantHealth struct {
	APIStatus         string `json:"api_status"`
	DatabaseStatus    string `json:"database_status"`
	GoogleDriveStatus string `json:"google_drive_status"`
}

// TenantHealth checks the database and Drive with a short timeout each
// GET /api/lisa/tenant/health
func (h *HealthHandler) TenantHealth(w http.ResponseWriter, r *http.Request) {
	health := &tenantHealth{
		APIStatus:         statusOK,
		DatabaseStatus:    h.check(r.Context(), "database", h.database),
		GoogleDriveStatus: h.check(r.Context(), "google_drive", h.drive),
	}
	httputil.RespondJSON(w, http.StatusOK, health)
}

func (h *HealthHandler) check(ctx context.Context, name string, p Checker) string {
	if p == nil {
		return statusNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := p.Check(ctx); err != nil {
		h.logger.Warn("health check failed", "dependency", name, "error", err)
		return statusError
	}
	return statusOK
}

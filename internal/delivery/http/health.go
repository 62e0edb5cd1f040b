package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"eventticketing/internal/delivery/http/helpers"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler answers GET /healthz by running every registered check.
type HealthHandler struct {
	logger *slog.Logger
	checks map[string]HealthCheck
}

func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{logger: logger, checks: make(map[string]HealthCheck)}
}

// Register adds a named check. Not safe for use once serving has started.
func (h *HealthHandler) Register(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	var failing []string
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", name, "err", err)
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		slices.Sort(failing)
		helpers.WriteJSONErrorDetails(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "dependency unavailable", failing)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

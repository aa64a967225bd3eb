// Package handler provides HTTP handlers for the status endpoints. Handlers
// only read the scheduler's status board; nothing here changes scheduling.
package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/albapepper/rollcall/internal/api/respond"
	"github.com/albapepper/rollcall/internal/notifications"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	status  *notifications.Status
	cfg     notifications.Config
	started time.Time
	now     func() time.Time
}

// New creates a Handler.
func New(status *notifications.Status, cfg notifications.Config, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{status: status, cfg: cfg, started: now(), now: now}
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

type configView struct {
	PollIntervalSeconds   int      `json:"poll_interval_seconds"`
	StartThresholdMinutes int      `json:"start_threshold_minutes"`
	SendOffsetMinutes     int      `json:"send_offset_minutes"`
	TargetRoles           []string `json:"target_roles"`
}

// Status returns the scheduler snapshot and the active configuration.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "NO_SCHEDULER", "Scheduler status is not available")
		return
	}

	roles := make([]string, 0, len(h.cfg.TargetRoles))
	for role := range h.cfg.TargetRoles {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"scheduler": h.status.Snapshot(),
		"config": configView{
			PollIntervalSeconds:   int(h.cfg.PollInterval.Seconds()),
			StartThresholdMinutes: h.cfg.StartThresholdMinutes,
			SendOffsetMinutes:     h.cfg.SendOffsetMinutes,
			TargetRoles:           roles,
		},
		"uptime_seconds": int(h.now().Sub(h.started).Seconds()),
		"timestamp":      h.now().UTC().Format(time.RFC3339),
	})
}

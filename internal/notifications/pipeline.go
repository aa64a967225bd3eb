package notifications

import (
	"context"
	"log/slog"
	"strings"
)

// PlayerDirectory yields the players currently connected to the server.
type PlayerDirectory interface {
	CurrentRoster(ctx context.Context) ([]Player, error)
}

// SelectTargets keeps the players whose lowercased role is in
// cfg.TargetRoles. Players without an id or name cannot be addressed and are
// skipped with a warning. Duplicates are kept as given.
func SelectTargets(roster []Player, cfg Config, logger *slog.Logger) []Target {
	if logger == nil {
		logger = slog.Default()
	}

	var targets []Target
	for _, p := range roster {
		role := strings.ToLower(p.Role)
		if _, ok := cfg.TargetRoles[role]; !ok {
			continue
		}
		if p.ID == "" || p.Name == "" {
			logger.Warn("Skipping player without id or name",
				"player_id", p.ID, "player_name", p.Name, "role", role)
			continue
		}
		targets = append(targets, Target{Player: p, Message: cfg.Message})
		logger.Info(cfg.text(KeyMessageInQueue, "Message in queue"), "player_name", p.Name, "role", role)
	}
	return targets
}

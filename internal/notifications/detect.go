package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// GameStateSource yields the raw remaining-time reading of the current
// session. ok=false means the reading is unavailable (no session data or a
// transport failure the source already logged).
type GameStateSource interface {
	CurrentClock(ctx context.Context) (raw string, ok bool)
}

// ParseClock converts an H:MM:SS reading to a SessionClock.
// "", "0:00:00" and any reading totalling zero are inactive. Minutes and
// seconds are not range-checked; they add up as given.
func ParseClock(raw string) (SessionClock, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0:00:00" {
		return NoSession, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return NoSession, fmt.Errorf("%w: %q", ErrMalformedClock, raw)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return NoSession, fmt.Errorf("%w: %q", ErrMalformedClock, raw)
		}
		fields[i] = n
	}

	total := fields[0]*3600 + fields[1]*60 + fields[2]
	if total == 0 {
		return NoSession, nil
	}
	return SessionClock{SecondsRemaining: total, Active: true}, nil
}

// ClockTracker reads the game state and normalizes it. Malformed readings
// are logged and reported as NoSession.
type ClockTracker struct {
	source  GameStateSource
	logger  *slog.Logger
	phrases Phrases
}

// NewClockTracker creates a ClockTracker.
func NewClockTracker(source GameStateSource, logger *slog.Logger) *ClockTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClockTracker{source: source, logger: logger}
}

// Current returns the normalized clock for this poll.
func (t *ClockTracker) Current(ctx context.Context) SessionClock {
	raw, ok := t.source.CurrentClock(ctx)
	if !ok {
		return NoSession
	}
	clock, err := ParseClock(raw)
	if err != nil {
		t.logger.Error(phrase(t.phrases, KeyTimeFormatError, "Unexpected time format"), "raw_time", raw, "error", err)
		return NoSession
	}
	return clock
}

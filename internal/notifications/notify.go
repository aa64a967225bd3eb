// Package notifications watches the session clock of a game server and, at a
// fixed moment before the session starts, messages every connected player
// whose role is on the allow-list.
//
// Pipeline: poll clock → decide (wait / arm) → sleep → select targets →
// fan out one send per target → cooldown.
package notifications

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrMalformedClock marks a clock reading that is not H:MM:SS.
var ErrMalformedClock = errors.New("malformed clock reading")

// PartialDispatchError reports that some sends of a dispatch cycle failed.
type PartialDispatchError struct {
	Failed int
	Total  int
}

func (e *PartialDispatchError) Error() string {
	return fmt.Sprintf("%d of %d notifications failed", e.Failed, e.Total)
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// SessionClock is a normalized clock reading. Active=false means no session
// is running (or the reading could not be used).
type SessionClock struct {
	SecondsRemaining int
	Active           bool
}

// NoSession is the inactive clock.
var NoSession = SessionClock{}

// Player is one entry of the server roster.
type Player struct {
	ID   string
	Name string
	Role string
}

// Target is a player selected for notification together with the message.
type Target struct {
	Player  Player
	Message string
}

// Result is the outcome of one send.
type Result struct {
	Target  Target
	Success bool
	Err     error
}

// Report aggregates the results of one dispatch cycle.
type Report struct {
	Results  []Result
	Sent     int
	Failed   int
	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("targets=%d sent=%d failed=%d dur=%s",
		len(r.Results), r.Sent, r.Failed, r.Duration.Round(time.Millisecond))
}

// Err returns a *PartialDispatchError if any send failed.
func (r *Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return &PartialDispatchError{Failed: r.Failed, Total: len(r.Results)}
}

// --------------------------------------------------------------------------
// Config
// --------------------------------------------------------------------------

// Config is the read-only scheduler configuration. It is built once at
// startup and passed by value.
type Config struct {
	PollInterval          time.Duration
	TargetRoles           map[string]struct{} // lowercase
	StartThresholdMinutes int
	SendOffsetMinutes     int
	Message               string
	Phrases               Phrases // localized log text, nil = English
}

// NewConfig builds a Config, lowercasing roles.
func NewConfig(poll time.Duration, roles []string, startThresholdMinutes, sendOffsetMinutes int, message string) Config {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return Config{
		PollInterval:          poll,
		TargetRoles:           set,
		StartThresholdMinutes: startThresholdMinutes,
		SendOffsetMinutes:     sendOffsetMinutes,
		Message:               message,
	}
}

// Validate reports whether the threshold/offset invariant holds. A violation
// is not fatal: Tick arms immediately in that case.
func (c Config) Validate() error {
	if c.SendOffsetMinutes < 0 || c.StartThresholdMinutes < c.SendOffsetMinutes {
		return fmt.Errorf("start threshold (%d min) must be >= send offset (%d min) >= 0",
			c.StartThresholdMinutes, c.SendOffsetMinutes)
	}
	return nil
}

func (c Config) text(key, fallback string) string {
	return phrase(c.Phrases, key, fallback)
}

// thresholdSeconds is the remaining-time mark at which the dispatch fires.
func (c Config) thresholdSeconds() int {
	return (c.StartThresholdMinutes - c.SendOffsetMinutes) * 60
}

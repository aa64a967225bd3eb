package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Notifier sends one message to one player.
type Notifier interface {
	Send(ctx context.Context, playerID, playerName, message string) error
}

// Fanout sends one notification per target concurrently and collects every
// outcome. A failing send never cancels its siblings.
type Fanout struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewFanout creates a Fanout over notifier.
func NewFanout(notifier Notifier, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{notifier: notifier, logger: logger}
}

// Dispatch issues all sends at once and waits for all of them. The returned
// report has exactly one result per target, in target order. Failed sends are
// not retried.
func (f *Fanout) Dispatch(ctx context.Context, targets []Target) Report {
	if len(targets) == 0 {
		return Report{}
	}

	start := time.Now()
	results := make([]Result, len(targets))

	// Plain Group, not WithContext: one failure must not cancel the others.
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			results[i] = f.send(ctx, t)
			return nil
		})
	}
	// Join only: every send reports through results and returns nil.
	_ = g.Wait()

	report := Report{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.Success {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	return report
}

func (f *Fanout) send(ctx context.Context, t Target) (res Result) {
	res.Target = t
	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Err = fmt.Errorf("notifier panic: %v", p)
			f.logger.Error("Send panicked", "player_id", t.Player.ID, "player_name", t.Player.Name, "error", res.Err)
		}
	}()

	if err := f.notifier.Send(ctx, t.Player.ID, t.Player.Name, t.Message); err != nil {
		f.logger.Warn("Send failed", "player_id", t.Player.ID, "player_name", t.Player.Name, "error", err)
		res.Err = err
		return res
	}
	res.Success = true
	return res
}

package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Backend is the game-server client the scheduler owns: clock, roster and
// messaging over one shared connection, released with Close.
type Backend interface {
	GameStateSource
	PlayerDirectory
	Notifier
	io.Closer
}

// Scheduler is the notification control loop. One Scheduler drives one
// Backend; it is not safe to Run twice.
type Scheduler struct {
	backend Backend
	cfg     Config
	tracker *ClockTracker
	fanout  *Fanout
	clock   clockwork.Clock
	status  *Status
	logger  *slog.Logger

	// Loop-goroutine only. notified latches after a dispatch until the
	// session ends or a new one starts.
	notified      bool
	lastRemaining int

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithStatus publishes state transitions and reports to st.
func WithStatus(st *Status) Option {
	return func(s *Scheduler) { s.status = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a Scheduler.
func NewScheduler(backend Backend, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		backend: backend,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.tracker = NewClockTracker(backend, s.logger)
	s.tracker.phrases = cfg.Phrases
	s.fanout = NewFanout(backend, s.logger)
	return s
}

// Run polls until ctx is cancelled. Per-cycle errors are logged and never
// stop the loop. The backend is closed exactly once on return; Run returns
// the close error, if any.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.release()

	s.logger.Info("Notification scheduler started",
		"poll_interval", s.cfg.PollInterval,
		"start_threshold_minutes", s.cfg.StartThresholdMinutes,
		"send_offset_minutes", s.cfg.SendOffsetMinutes,
		"target_roles", len(s.cfg.TargetRoles))

	for s.cycle(ctx) {
	}

	s.logger.Info("Notification scheduler stopped")
	s.setState(StateStopped)
	s.release()
	return s.closeErr
}

// cycle runs one poll and, if armed, one dispatch plus cooldown. It returns
// false once ctx is cancelled.
func (s *Scheduler) cycle(ctx context.Context) bool {
	clock := s.tracker.Current(ctx)
	out := Tick(clock, s.cfg)
	s.status.recordPoll(clock, out, s.clock.Now())

	// The clock only counts down within a session: a higher reading is a
	// new one.
	if !clock.Active || clock.SecondsRemaining > s.lastRemaining {
		s.notified = false
	}
	s.lastRemaining = clock.SecondsRemaining

	switch out.Kind {
	case OutcomeNoSession:
		s.setState(StateWaitingForSession)
		s.logger.Info(s.cfg.text(KeyGameNotRunning, "Game not running"))
		return s.sleep(ctx, s.cfg.PollInterval)

	case OutcomeStillEarly:
		s.setState(StateWaitingForThreshold)
		s.logger.Info(s.cfg.text(KeyGameTimeRemaining, "Game time remaining"),
			"minutes", out.SecondsRemaining/60,
			"seconds", out.SecondsRemaining%60)
		return s.sleep(ctx, s.cfg.PollInterval)
	}

	if s.notified {
		s.setState(StateWaitingForSession)
		s.logger.Info(s.cfg.text(KeyAlreadyNotified, "Already notified for this session"),
			"seconds_remaining", clock.SecondsRemaining)
		return s.sleep(ctx, s.cfg.PollInterval)
	}

	// Armed: one uninterrupted wait (only cancellation ends it early), then
	// exactly one dispatch for this interval.
	wait := time.Duration(out.WaitSeconds) * time.Second
	s.setState(StateArmedSleeping)
	s.status.recordArmed(s.clock.Now().Add(wait))
	s.logger.Info(s.cfg.text(KeyGameStartedWaiting, "Game started, waiting before sending"), "wait_seconds", out.WaitSeconds)
	if !s.sleep(ctx, wait) {
		return false
	}

	s.setState(StateDispatching)
	s.logger.Info(s.cfg.text(KeySendingNow, "Sending messages now"))
	s.dispatch(ctx)
	s.notified = true
	if ctx.Err() != nil {
		return false
	}

	s.setState(StateCooldown)
	s.logger.Info(s.cfg.text(KeyRunUntilNextCycle, "Dispatch complete, cooling down"), "cooldown", s.cfg.PollInterval)
	if !s.sleep(ctx, s.cfg.PollInterval) {
		return false
	}
	s.setState(StateWaitingForSession)
	return true
}

func (s *Scheduler) dispatch(ctx context.Context) {
	roster, err := s.backend.CurrentRoster(ctx)
	if err != nil {
		s.logger.Error(s.cfg.text(KeyPlayerListError, "Error updating player list"), "error", err)
		return
	}
	if len(roster) == 0 {
		s.logger.Warn(s.cfg.text(KeyNoPlayersFound, "No players found"))
		return
	}

	targets := SelectTargets(roster, s.cfg, s.logger)
	if len(targets) == 0 {
		s.logger.Info(s.cfg.text(KeyNoRolesFound, "No players with target roles, no messages sent"), "players", len(roster))
		return
	}

	report := s.fanout.Dispatch(ctx, targets)
	s.status.recordReport(report, s.clock.Now())
	if err := report.Err(); err != nil {
		s.logger.Warn("Messages sent with failures", "summary", report.Summary(), "error", err)
		return
	}
	s.logger.Info(s.cfg.text(KeyMessagesSent, "Messages sent"), "summary", report.Summary())
}

// sleep waits d on the scheduler clock. It returns false if ctx was
// cancelled first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	select {
	case <-s.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Scheduler) setState(state State) {
	s.status.setState(state, s.clock.Now())
}

func (s *Scheduler) release() {
	s.closeOnce.Do(func() {
		s.closeErr = s.backend.Close()
		if s.closeErr != nil {
			s.logger.Error("Failed to close game-server client", "error", s.closeErr)
			return
		}
		s.logger.Info(s.cfg.text(KeyClientClosed, "Game-server client closed"))
	})
}

// Preview runs one poll and resolves the targets a dispatch would use right
// now, without sending anything or closing the backend.
func (s *Scheduler) Preview(ctx context.Context) (SessionClock, Outcome, []Target, error) {
	clock := s.tracker.Current(ctx)
	out := Tick(clock, s.cfg)

	roster, err := s.backend.CurrentRoster(ctx)
	if err != nil {
		return clock, out, nil, fmt.Errorf("get roster: %w", err)
	}
	return clock, out, SelectTargets(roster, s.cfg, s.logger), nil
}

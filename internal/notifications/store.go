package notifications

import (
	"sync"
	"time"
)

// State is a phase of the scheduler loop.
type State string

const (
	StateWaitingForSession   State = "waiting_for_session"
	StateWaitingForThreshold State = "waiting_for_threshold"
	StateArmedSleeping       State = "armed_sleeping"
	StateDispatching         State = "dispatching"
	StateCooldown            State = "cooldown"
	StateStopped             State = "stopped"
)

// ResultView is the serializable form of a Result.
type ResultView struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// ReportView is the serializable form of a Report.
type ReportView struct {
	At      time.Time    `json:"at"`
	Summary string       `json:"summary"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []ResultView `json:"results"`
}

// Snapshot is a point-in-time copy of the scheduler's status.
type Snapshot struct {
	State            State       `json:"state"`
	Since            time.Time   `json:"since"`
	SessionActive    bool        `json:"session_active"`
	SecondsRemaining int         `json:"seconds_remaining"`
	LastOutcome      string      `json:"last_outcome,omitempty"`
	LastPoll         time.Time   `json:"last_poll,omitzero"`
	ArmedUntil       *time.Time  `json:"armed_until,omitempty"`
	Dispatches       int         `json:"dispatches"`
	LastReport       *ReportView `json:"last_report,omitempty"`
}

// Status holds the latest scheduler snapshot for readers on other
// goroutines. A nil *Status ignores writes.
type Status struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStatus creates a Status in the waiting-for-session state.
func NewStatus(now time.Time) *Status {
	return &Status{snap: Snapshot{State: StateWaitingForSession, Since: now}}
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if snap.ArmedUntil != nil {
		t := *snap.ArmedUntil
		snap.ArmedUntil = &t
	}
	if snap.LastReport != nil {
		r := *snap.LastReport
		r.Results = append([]ResultView(nil), r.Results...)
		snap.LastReport = &r
	}
	return snap
}

func (s *Status) setState(state State, now time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != state {
		s.snap.State = state
		s.snap.Since = now
	}
	if state != StateArmedSleeping {
		s.snap.ArmedUntil = nil
	}
}

func (s *Status) recordPoll(clock SessionClock, out Outcome, now time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SessionActive = clock.Active
	s.snap.SecondsRemaining = clock.SecondsRemaining
	s.snap.LastOutcome = out.Kind.String()
	s.snap.LastPoll = now
}

func (s *Status) recordArmed(until time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ArmedUntil = &until
}

func (s *Status) recordReport(r Report, now time.Time) {
	if s == nil {
		return
	}
	view := &ReportView{
		At:      now,
		Summary: r.Summary(),
		Sent:    r.Sent,
		Failed:  r.Failed,
		Results: make([]ResultView, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		rv := ResultView{
			PlayerID:   res.Target.Player.ID,
			PlayerName: res.Target.Player.Name,
			Role:       res.Target.Player.Role,
			Success:    res.Success,
		}
		if res.Err != nil {
			rv.Error = res.Err.Error()
		}
		view.Results = append(view.Results, rv)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Dispatches++
	s.snap.LastReport = view
}

package notifications

import "fmt"

// OutcomeKind classifies one poll.
type OutcomeKind int

const (
	OutcomeNoSession OutcomeKind = iota
	OutcomeStillEarly
	OutcomeReadyToArm
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoSession:
		return "no_session"
	case OutcomeStillEarly:
		return "still_early"
	case OutcomeReadyToArm:
		return "ready_to_arm"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the decision derived from one clock reading.
// SecondsRemaining is set for StillEarly, WaitSeconds for ReadyToArm.
type Outcome struct {
	Kind             OutcomeKind
	SecondsRemaining int
	WaitSeconds      int
}

// Tick decides what the scheduler does with a clock reading. It is pure.
//
// The dispatch fires when the remaining time reaches
// (StartThresholdMinutes-SendOffsetMinutes) minutes. Readings below that mark
// are StillEarly; readings at or above it arm with the difference as wait.
// A config that violates StartThreshold >= SendOffset >= 0 arms immediately.
func Tick(clock SessionClock, cfg Config) Outcome {
	if !clock.Active {
		return Outcome{Kind: OutcomeNoSession}
	}
	if cfg.Validate() != nil {
		return Outcome{Kind: OutcomeReadyToArm}
	}

	threshold := cfg.thresholdSeconds()
	if clock.SecondsRemaining < threshold {
		return Outcome{Kind: OutcomeStillEarly, SecondsRemaining: clock.SecondsRemaining}
	}
	return Outcome{Kind: OutcomeReadyToArm, WaitSeconds: max(0, clock.SecondsRemaining-threshold)}
}

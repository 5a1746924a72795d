// Package timer implements the focus/break interval timer. Remaining time is
// always recomputed from the wall clock and the persisted start instant, so
// the timer survives the process being suspended, killed or restarted.
package timer

import (
	"fmt"
)

// Mode is the kind of interval.
type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// ParseMode accepts "focus" or "break".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFocus, "":
		return ModeFocus, nil
	case ModeBreak:
		return ModeBreak, nil
	default:
		return "", fmt.Errorf("timer: unknown mode %q", s)
	}
}

// Default interval lengths in seconds.
const (
	FocusDuration = 1500
	BreakDuration = 300
)

// DefaultDuration is the length of an interval of mode m in seconds.
func DefaultDuration(m Mode) int {
	if m == ModeBreak {
		return BreakDuration
	}
	return FocusDuration
}

// Status is the externally visible state of the timer.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	// StatusCompleted is reported once, by the call that observed expiry.
	// The persisted state has already returned to idle by then.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the persisted timer record. StartEpochMillis is set exactly when
// IsRunning is true. RemainingDurationSeconds is authoritative only while
// idle; while running it holds the interval length at start.
type State struct {
	StartEpochMillis         *int64 `json:"startEpochMillis,omitempty"`
	RemainingDurationSeconds int    `json:"remainingDurationSeconds"`
	IsRunning                bool   `json:"isRunning"`
	IsBreakMode              bool   `json:"isBreakMode"`
}

// DefaultState is an idle focus timer of full length.
func DefaultState() State {
	return State{RemainingDurationSeconds: FocusDuration}
}

// Mode reports the interval kind the state refers to.
func (s State) Mode() Mode {
	if s.IsBreakMode {
		return ModeBreak
	}
	return ModeFocus
}

// Paused reports whether an idle state holds time left over from a stopped
// interval rather than a full default length.
func (s State) Paused() bool {
	return !s.IsRunning && s.RemainingDurationSeconds != DefaultDuration(s.Mode())
}

// repair restores the invariants of a state read from storage. ok is false
// when the state could not be used as is.
func (s State) repair() (State, bool) {
	out := s
	ok := true
	switch {
	case out.IsRunning && out.StartEpochMillis == nil:
		out.IsRunning = false
		ok = false
	case !out.IsRunning && out.StartEpochMillis != nil:
		out.StartEpochMillis = nil
		ok = false
	}
	if out.RemainingDurationSeconds <= 0 {
		out = State{RemainingDurationSeconds: DefaultDuration(out.Mode()), IsBreakMode: out.IsBreakMode}
		ok = false
	}
	return out, ok
}

// Snapshot is the timer as seen at one instant.
type Snapshot struct {
	Status Status `json:"status"`
	Mode   Mode   `json:"mode"`
	// Remaining is the number of whole seconds left.
	Remaining int `json:"remainingSeconds"`
	// Duration is the length of the interval Remaining counts down from.
	Duration int `json:"durationSeconds"`
}

// Progress is the elapsed fraction of the interval in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Status == StatusCompleted {
		return 1
	}
	if s.Duration <= 0 {
		return 0
	}
	p := 1 - float64(s.Remaining)/float64(s.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

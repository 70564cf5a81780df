package session

import (
	"errors"
	"fmt"
)

var (
	ErrPaused        = errors.New("session clock is paused")
	ErrAfterHours    = errors.New("session is after hours")
	ErrNotAfterHours = errors.New("session is not after hours")
	ErrInvalidTime   = errors.New("invalid clock time")
)

// ClockTime is a wall clock reading in minutes since midnight.
type ClockTime int

const (
	OpenTime  ClockTime = 9 * 60
	CloseTime ClockTime = 15*60 + 30

	// TickStep is the number of minutes each tick advances the clock.
	TickStep = 15
	// TradingMinutes is the length of a session in minutes.
	TradingMinutes = int(CloseTime - OpenTime)
	// TicksPerDay is the number of clock advances from open to close.
	TicksPerDay = TradingMinutes / TickStep
)

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return ClockTime(h*60 + m), nil
}

// MinutesSinceOpen may be negative before the open.
func (c ClockTime) MinutesSinceOpen() int {
	return int(c - OpenTime)
}

// Fraction is the elapsed share of the session, clamped to [0, 1].
func (c ClockTime) Fraction() float64 {
	f := float64(c.MinutesSinceOpen()) / float64(TradingMinutes)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PauseReason records why the clock is paused.
type PauseReason uint8

const (
	PauseNone PauseReason = iota
	PauseTrade
	PauseAfterHours
)

func (r PauseReason) String() string {
	switch r {
	case PauseTrade:
		return "TRADE"
	case PauseAfterHours:
		return "AFTER_HOURS"
	default:
		return "NONE"
	}
}

// State is a value copy of the clock.
type State struct {
	Day         int
	Time        ClockTime
	AfterHours  bool
	Paused      bool
	PauseReason PauseReason
}

// Clock is the trading session state machine.
// A day runs Open(09:00) -> ... -> Open(15:15) -> AfterHours, and only
// Rollover leaves AfterHours. It is not safe for concurrent use; the game
// controller owns it.
type Clock struct {
	state State
}

// NewClock returns a clock at 09:00 on day 1.
func NewClock() *Clock {
	return &Clock{state: State{Day: 1, Time: OpenTime}}
}

// State returns the current state.
func (c *Clock) State() State { return c.state }

// Running reports whether a tick may advance the clock.
func (c *Clock) Running() bool {
	return !c.state.Paused && !c.state.AfterHours
}

// Advance moves the clock forward one step. Reaching the close moves the
// session to after hours and pauses it.
func (c *Clock) Advance() (State, error) {
	if c.state.AfterHours {
		return c.state, ErrAfterHours
	}
	if c.state.Paused {
		return c.state, ErrPaused
	}

	next := c.state.Time + TickStep
	if next >= CloseTime {
		next = CloseTime
		c.state.AfterHours = true
		c.state.Paused = true
		c.state.PauseReason = PauseAfterHours
	}
	c.state.Time = next
	return c.state, nil
}

// Rollover starts the next trading day. It is only legal after hours, so
// two rollovers without an intervening close are impossible.
func (c *Clock) Rollover() (State, error) {
	if !c.state.AfterHours {
		return c.state, ErrNotAfterHours
	}
	c.state = State{Day: c.state.Day + 1, Time: OpenTime}
	return c.state, nil
}

// PauseForTrade pauses the clock while a trade dialog is open.
func (c *Clock) PauseForTrade() error {
	if c.state.AfterHours {
		return ErrAfterHours
	}
	c.state.Paused = true
	c.state.PauseReason = PauseTrade
	return nil
}

// ResumeFromTrade clears a trade pause. Pauses caused by the close are
// left alone. It reports whether the clock was resumed.
func (c *Clock) ResumeFromTrade() bool {
	if c.state.PauseReason != PauseTrade {
		return false
	}
	c.state.Paused = false
	c.state.PauseReason = PauseNone
	return true
}

package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/zappabad/daytrader/internal/analytics"
)

// ErrNotManual is returned by RunDays on a controller driven by timers.
var ErrNotManual = errors.New("controller is not in manual mode")

// DayResult is the outcome of one simulated trading day.
type DayResult struct {
	Day     int
	Summary []analytics.DaySummary
	// Close is the state at the close, before the rollover.
	Close Snapshot
}

// RunDays plays n whole trading days without waiting on timers, starting
// the game first if needed. It stops after hours on the last day. Events
// are not read, so the controller should drop them on overflow.
func (c *Controller) RunDays(ctx context.Context, n int) ([]DayResult, error) {
	if !c.cfg.Manual {
		return nil, ErrNotManual
	}
	if !c.Snapshot().Started {
		if err := c.Start(ctx); err != nil {
			return nil, err
		}
	}

	results := make([]DayResult, 0, n)
	for i := 0; i < n; i++ {
		snap := c.Snapshot()
		if snap.Session.AfterHours {
			var err error
			if snap, err = c.Rollover(ctx); err != nil {
				return results, err
			}
		}
		if snap.Dialog != nil {
			if err := c.CancelTrade(ctx); err != nil {
				return results, err
			}
		}

		for !snap.Session.AfterHours {
			var err error
			if snap, err = c.Tick(ctx); err != nil {
				return results, fmt.Errorf("day %d: %w", snap.Session.Day, err)
			}
		}

		summary, err := c.DaySummary(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, DayResult{Day: snap.Session.Day, Summary: summary, Close: snap})
	}
	return results, nil
}

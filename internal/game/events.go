package game

import (
	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/ledger"
)

// EventType indicates the type of game event.
type EventType int

const (
	EventStarted EventType = iota
	EventTick
	EventTradeOpened
	EventTradeCanceled
	EventTradeFilled
	EventTradeRejected
	EventAfterHours
	EventDayStarted
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "STARTED"
	case EventTick:
		return "TICK"
	case EventTradeOpened:
		return "TRADE_OPENED"
	case EventTradeCanceled:
		return "TRADE_CANCELED"
	case EventTradeFilled:
		return "TRADE_FILLED"
	case EventTradeRejected:
		return "TRADE_REJECTED"
	case EventAfterHours:
		return "AFTER_HOURS"
	case EventDayStarted:
		return "DAY_STARTED"
	default:
		return "UNKNOWN"
	}
}

// Event is published after every state change.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Fill     *ledger.Record         // TRADE_FILLED
	Err      error                  // TRADE_REJECTED
	Summary  []analytics.DaySummary // AFTER_HOURS
}

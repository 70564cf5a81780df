package game

import (
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/session"
)

// TradeDialog is the trade the player is currently entering.
type TradeDialog struct {
	Instrument market.Instrument
	Side       ledger.Side
}

// Snapshot is an immutable copy of the player-facing game state.
type Snapshot struct {
	Started     bool
	Session     session.State
	Portfolio   ledger.Portfolio
	Instruments []market.InstrumentState
	// Dialog is set while a trade is being entered.
	Dialog   *TradeDialog
	Strategy string
	Fills    int
}

// Instrument looks up one instrument's state.
func (s Snapshot) Instrument(id market.InstrumentID) (market.InstrumentState, bool) {
	for _, st := range s.Instruments {
		if st.Instrument.ID == id {
			return st, true
		}
	}
	return market.InstrumentState{}, false
}

// HoldingsValue is the market value of all positions.
func (s Snapshot) HoldingsValue() market.Price {
	var total market.Price
	for _, st := range s.Instruments {
		total += st.HoldingValue()
	}
	return total
}

// TotalAssets is cash plus holdings.
func (s Snapshot) TotalAssets() market.Price {
	return s.Portfolio.Cash + s.HoldingsValue()
}

// Quote is what a trade dialog shows when it opens.
type Quote struct {
	Instrument  market.InstrumentState
	Side        ledger.Side
	Cash        market.Price
	MaxBuyable  market.Quantity
	MaxSellable market.Quantity
}

// Estimate returns the value of qty shares at the quoted price.
func (q Quote) Estimate(qty market.Quantity) market.Price {
	return ledger.Estimate(q.Instrument, qty)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Instruments = make([]market.InstrumentState, len(s.Instruments))
	copy(out.Instruments, s.Instruments)
	if s.Dialog != nil {
		d := *s.Dialog
		out.Dialog = &d
	}
	return out
}

package pricing

import (
	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/session"
)

// Synthesizer prices instruments from the series selected by their data
// source index.
type Synthesizer struct {
	store    *history.Store
	strategy Strategy
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(store *history.Store, strategy Strategy) *Synthesizer {
	return &Synthesizer{store: store, strategy: strategy}
}

// Strategy returns the active strategy.
func (s *Synthesizer) Strategy() Strategy { return s.strategy }

// Compute prices one instrument. An unknown data source is treated as an
// empty series, which freezes history-driven strategies.
func (s *Synthesizer) Compute(state market.InstrumentState, day int, t session.ClockTime) Result {
	series, _ := s.store.Series(state.Instrument.DataSourceIndex)
	return s.strategy.Price(Input{State: state, Day: day, Time: t, Series: series})
}

// Usable reports whether the instrument can move at all.
func (s *Synthesizer) Usable(in market.Instrument) bool {
	return !NeedsHistory(s.strategy) || s.store.Usable(in.DataSourceIndex)
}

package view

import (
	"sync"

	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/session"
)

// PricePoint is one synthesized price at a session clock reading.
type PricePoint struct {
	Time  session.ClockTime
	Price market.Price
}

// PathSnapshot is a point-in-time copy of every instrument's intraday path.
type PathSnapshot struct {
	Day          int
	ByInstrument map[market.InstrumentID][]PricePoint
}

// MarketView records the intraday price path of each instrument for the
// current trading day. Writers are the game controller; readers may be
// any goroutine.
type MarketView struct {
	mu    sync.RWMutex
	day   int
	paths map[market.InstrumentID][]PricePoint
}

// NewMarketView creates a MarketView for day 1.
func NewMarketView() *MarketView {
	return &MarketView{
		day:   1,
		paths: make(map[market.InstrumentID][]PricePoint),
	}
}

// Apply appends a price to an instrument's path.
func (v *MarketView) Apply(id market.InstrumentID, pt PricePoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.paths[id] = append(v.paths[id], pt)
}

// Reset clears all paths and starts a new day.
func (v *MarketView) Reset(day int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.day = day
	v.paths = make(map[market.InstrumentID][]PricePoint, len(v.paths))
}

// Path returns a copy of one instrument's path.
func (v *MarketView) Path(id market.InstrumentID) []PricePoint {
	v.mu.RLock()
	defer v.mu.RUnlock()
	src := v.paths[id]
	out := make([]PricePoint, len(src))
	copy(out, src)
	return out
}

// Prices returns just the prices of one instrument's path.
func (v *MarketView) Prices(id market.InstrumentID) []market.Price {
	v.mu.RLock()
	defer v.mu.RUnlock()
	src := v.paths[id]
	out := make([]market.Price, len(src))
	for i, pt := range src {
		out[i] = pt.Price
	}
	return out
}

// Snapshot returns a deep copy of all paths.
func (v *MarketView) Snapshot() PathSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := PathSnapshot{
		Day:          v.day,
		ByInstrument: make(map[market.InstrumentID][]PricePoint, len(v.paths)),
	}
	for id, path := range v.paths {
		cp := make([]PricePoint, len(path))
		copy(cp, path)
		snap.ByInstrument[id] = cp
	}
	return snap
}

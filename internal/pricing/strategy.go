package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/session"
)

var ErrUnknownStrategy = errors.New("unknown pricing strategy")

// Source is a pseudo-random source of values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Anomaly explains why a price was left unchanged.
type Anomaly uint8

const (
	AnomalyNone Anomaly = iota
	AnomalyInsufficientData
	AnomalySeriesExhausted
	AnomalyInvalidClose
	AnomalyInvalidTarget
)

func (a Anomaly) String() string {
	switch a {
	case AnomalyNone:
		return "NONE"
	case AnomalyInsufficientData:
		return "INSUFFICIENT_DATA"
	case AnomalySeriesExhausted:
		return "SERIES_EXHAUSTED"
	case AnomalyInvalidClose:
		return "INVALID_CLOSE"
	case AnomalyInvalidTarget:
		return "INVALID_TARGET"
	default:
		return "UNKNOWN"
	}
}

// Input is everything a strategy may look at to price one instrument.
type Input struct {
	State  market.InstrumentState
	Day    int
	Time   session.ClockTime
	Series history.Series
}

// Result is the outcome of pricing one instrument for one tick.
// A frozen result carries the unchanged current price.
type Result struct {
	Price   market.Price
	Anomaly Anomaly
}

// Frozen reports whether the price was left unchanged because of bad data.
func (r Result) Frozen() bool { return r.Anomaly != AnomalyNone }

func freeze(in Input, a Anomaly) Result {
	return Result{Price: in.State.CurrentPrice, Anomaly: a}
}

// Strategy computes the next price for an instrument.
// Implementations never fail; bad input freezes the price.
type Strategy interface {
	Name() string
	Price(in Input) Result
}

// Factory builds a strategy around a random source.
type Factory func(src Source) Strategy

var registry = map[string]Factory{
	ReplayName:     func(src Source) Strategy { return NewReplay(src) },
	FlatReplayName: func(Source) Strategy { return NewFlatReplay() },
	RandomWalkName: func(src Source) Strategy { return NewRandomWalk(src) },
}

// New returns the named strategy.
func New(name string, src Source) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return f(src), nil
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NeedsHistory reports whether s reads the historical series. Strategies
// that do not can opt out by implementing IgnoresHistory.
func NeedsHistory(s Strategy) bool {
	h, ok := s.(interface{ IgnoresHistory() bool })
	return !ok || !h.IgnoresHistory()
}

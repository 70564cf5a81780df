package pricing

import (
	"math"

	"github.com/zappabad/daytrader/internal/market"
)

const (
	ReplayName     = "replay"
	FlatReplayName = "flat-replay"

	// DefaultJitter bounds the multiplicative noise to +/-0.5%.
	DefaultJitter = 0.005
)

// Replay walks each day linearly from the day's opening price toward the
// close implied by the historical daily return, with bounded jitter.
//
// Trading day d is driven by the pair of closes at (d-1) mod (n-1) and the
// one after it, so a finite series drives an unbounded game. With
// StopAtEnd set, prices freeze once the series is used up instead.
type Replay struct {
	Jitter    float64
	StopAtEnd bool

	src Source
}

// NewReplay returns the canonical replay strategy.
func NewReplay(src Source) *Replay {
	return &Replay{Jitter: DefaultJitter, src: src}
}

// NewFlatReplay returns a replay without noise.
func NewFlatReplay() *Replay {
	return &Replay{}
}

func (r *Replay) Name() string {
	if r.Jitter == 0 {
		return FlatReplayName
	}
	return ReplayName
}

func (r *Replay) Price(in Input) Result {
	n := len(in.Series)
	if n < 2 {
		return freeze(in, AnomalyInsufficientData)
	}
	day := in.Day
	if day < 1 {
		day = 1
	}
	if r.StopAtEnd && day-1 >= n-1 {
		return freeze(in, AnomalySeriesExhausted)
	}

	startIdx := (day - 1) % (n - 1)
	endIdx := (startIdx + 1) % n
	if endIdx == 0 {
		return freeze(in, AnomalySeriesExhausted)
	}

	start := in.Series[startIdx].Close
	end := in.Series[endIdx].Close
	if !finite(start) || !finite(end) || start == 0 {
		return freeze(in, AnomalyInvalidClose)
	}

	dailyReturn := (end - start) / start
	target := float64(in.State.DayStartPrice) * (1 + dailyReturn*in.Time.Fraction())

	next := math.Round(target * r.jitterFactor())
	if !finite(next) || next > math.MaxInt64/2 {
		return freeze(in, AnomalyInvalidTarget)
	}
	return Result{Price: floor(market.Price(next))}
}

// jitterFactor draws from Uniform(1-Jitter, 1+Jitter).
func (r *Replay) jitterFactor() float64 {
	if r.Jitter == 0 || r.src == nil {
		return 1
	}
	return 1 + (r.src.Float64()-0.5)*2*r.Jitter
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floor(p market.Price) market.Price {
	if p < market.MinPrice {
		return market.MinPrice
	}
	return p
}

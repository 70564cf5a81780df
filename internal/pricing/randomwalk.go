package pricing

import (
	"math"

	"github.com/zappabad/daytrader/internal/market"
)

const (
	RandomWalkName = "random-walk"

	// DefaultStep bounds each random walk move to +/-1% of the current price.
	DefaultStep = 0.01
)

// RandomWalk moves the price by a bounded random fraction each tick and
// ignores historical data entirely.
type RandomWalk struct {
	Step float64
	// Drift biases every move by a constant fraction (a trend).
	Drift float64

	src Source
}

// NewRandomWalk returns an unbiased random walk.
func NewRandomWalk(src Source) *RandomWalk {
	return &RandomWalk{Step: DefaultStep, src: src}
}

func (w *RandomWalk) Name() string { return RandomWalkName }

func (w *RandomWalk) Price(in Input) Result {
	if w.src == nil {
		return freeze(in, AnomalyInsufficientData)
	}
	move := (w.src.Float64()-0.5)*2*w.Step + w.Drift
	next := math.Round(float64(in.State.CurrentPrice) * (1 + move))
	if !finite(next) || next > math.MaxInt64/2 {
		return freeze(in, AnomalyInvalidTarget)
	}
	return Result{Price: floor(market.Price(next))}
}

// IgnoresHistory implements the opt-out checked by NeedsHistory.
func (w *RandomWalk) IgnoresHistory() bool { return true }

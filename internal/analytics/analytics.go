// Package analytics summarizes intraday price paths and historical series.
package analytics

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/market"
)

var ErrNoData = errors.New("no data to summarize")

// DaySummary describes one instrument's trading day.
type DaySummary struct {
	Instrument market.Instrument
	Day        int
	Open       market.Price
	Close      market.Price
	High       market.Price
	Low        market.Price
	Mean       float64
	StdDev     float64
	ChangePct  float64
	Ticks      int
}

// SummarizeDay summarizes the prices observed during a day. open is the
// day-start price; path holds the price after each tick.
func SummarizeDay(in market.Instrument, day int, open market.Price, path []market.Price) (DaySummary, error) {
	if len(path) == 0 {
		return DaySummary{Instrument: in, Day: day, Open: open, Close: open, High: open, Low: open}, ErrNoData
	}

	data := make(stats.Float64Data, 0, len(path)+1)
	data = append(data, float64(open))
	for _, p := range path {
		data = append(data, float64(p))
	}

	mean, err := data.Mean()
	if err != nil {
		return DaySummary{}, fmt.Errorf("mean: %w", err)
	}
	sd, err := data.StandardDeviation()
	if err != nil {
		return DaySummary{}, fmt.Errorf("stddev: %w", err)
	}
	hi, err := data.Max()
	if err != nil {
		return DaySummary{}, fmt.Errorf("max: %w", err)
	}
	lo, err := data.Min()
	if err != nil {
		return DaySummary{}, fmt.Errorf("min: %w", err)
	}

	closing := path[len(path)-1]
	var change float64
	if open > 0 {
		change = float64(closing-open) / float64(open) * 100
	}

	return DaySummary{
		Instrument: in,
		Day:        day,
		Open:       open,
		Close:      closing,
		High:       market.Price(hi),
		Low:        market.Price(lo),
		Mean:       mean,
		StdDev:     sd,
		ChangePct:  change,
		Ticks:      len(path),
	}, nil
}

// SeriesStats describes a historical series.
type SeriesStats struct {
	Entries      int
	FirstDate    string
	LastDate     string
	MinClose     float64
	MaxClose     float64
	MeanReturn   float64
	StdDevReturn float64
}

// SummarizeSeries computes close range and daily return statistics.
func SummarizeSeries(s history.Series) (SeriesStats, error) {
	if len(s) == 0 {
		return SeriesStats{}, ErrNoData
	}

	closes := stats.Float64Data(s.Closes())
	out := SeriesStats{
		Entries:   len(s),
		FirstDate: s[0].Date,
		LastDate:  s[len(s)-1].Date,
	}

	var err error
	if out.MinClose, err = closes.Min(); err != nil {
		return SeriesStats{}, err
	}
	if out.MaxClose, err = closes.Max(); err != nil {
		return SeriesStats{}, err
	}

	if len(s) < 2 {
		return out, nil
	}

	returns := make(stats.Float64Data, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (s[i].Close-prev)/prev)
	}
	if len(returns) == 0 {
		return out, nil
	}
	if out.MeanReturn, err = stats.Mean(returns); err != nil {
		return SeriesStats{}, err
	}
	if out.StdDevReturn, err = stats.StandardDeviation(returns); err != nil {
		return SeriesStats{}, err
	}
	return out, nil
}

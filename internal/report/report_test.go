package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
)

func TestWriteDay(t *testing.T) {
	var buf bytes.Buffer
	WriteDay(&buf, game.DayResult{
		Day: 2,
		Summary: []analytics.DaySummary{{
			Instrument: market.Instrument{ID: 1, Name: "Company A"},
			Open:       1000, Close: 1050, High: 1060, Low: 990,
			ChangePct: 5,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Day 2")
	assert.Contains(t, out, "Company A")
	assert.Contains(t, out, "1060")
	assert.Contains(t, out, "+5.00%")
}

func TestWritePortfolio(t *testing.T) {
	a := market.NewInstrumentState(market.Instrument{ID: 1, Name: "Company A"}, 1200)
	a.SharesHeld = 5

	var buf bytes.Buffer
	WritePortfolio(&buf, game.Snapshot{
		Portfolio:   ledger.Portfolio{Cash: 4000},
		Instruments: []market.InstrumentState{a},
	})

	out := buf.String()
	assert.Contains(t, out, "6000")
	assert.Contains(t, out, "10000")
	assert.Contains(t, out, "Cash 4000")
}

func TestWriteSeries(t *testing.T) {
	var buf bytes.Buffer
	WriteSeries(&buf, []SeriesRow{
		{Index: 0, Path: "a.csv", Stats: analytics.SeriesStats{Entries: 3, FirstDate: "2024/01/04", LastDate: "2024/01/09", MinClose: 10, MaxClose: 12, MeanReturn: 0.01}},
		{Index: 1, Path: "b.csv", Err: errors.New("no data")},
	})

	out := buf.String()
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "+1.0000%")
	assert.Contains(t, out, "no data")
}

func TestChange(t *testing.T) {
	assert.InDelta(t, 10.0, Change(1000, 1100), 1e-9)
	assert.Equal(t, 0.0, Change(0, 5))
}

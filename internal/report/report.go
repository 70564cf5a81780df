package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/market"
)

// SeriesRow names one loaded data source for WriteSeries.
type SeriesRow struct {
	Index int
	Path  string
	Stats analytics.SeriesStats
	Err   error
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

// WriteDay renders one day's per-instrument summary.
func WriteDay(w io.Writer, r game.DayResult) {
	fmt.Fprintf(w, "Day %d\n", r.Day)

	table := newTable(w, []string{"Instrument", "Open", "Close", "High", "Low", "Change", "StdDev"})
	for _, s := range r.Summary {
		table.Append([]string{
			s.Instrument.Name,
			s.Open.String(),
			s.Close.String(),
			s.High.String(),
			s.Low.String(),
			fmt.Sprintf("%+.2f%%", s.ChangePct),
			fmt.Sprintf("%.2f", s.StdDev),
		})
	}
	table.Render()
}

// WritePortfolio renders cash, positions and total assets.
func WritePortfolio(w io.Writer, snap game.Snapshot) {
	table := newTable(w, []string{"Instrument", "Price", "Shares", "Value"})
	for _, st := range snap.Instruments {
		table.Append([]string{
			st.Instrument.Name,
			st.CurrentPrice.String(),
			st.SharesHeld.String(),
			st.HoldingValue().String(),
		})
	}
	table.SetFooter([]string{"", "Cash " + snap.Portfolio.Cash.String(), "Total", snap.TotalAssets().String()})
	table.Render()
}

// WriteSeries renders statistics for each loaded series.
func WriteSeries(w io.Writer, rows []SeriesRow) {
	table := newTable(w, []string{"#", "File", "Days", "From", "To", "Min", "Max", "Mean return", "StdDev return"})
	for _, r := range rows {
		if r.Err != nil {
			table.Append([]string{fmt.Sprint(r.Index), r.Path, "0", "-", "-", "-", "-", "-", r.Err.Error()})
			continue
		}
		s := r.Stats
		table.Append([]string{
			fmt.Sprint(r.Index),
			r.Path,
			fmt.Sprint(s.Entries),
			s.FirstDate,
			s.LastDate,
			fmt.Sprintf("%.2f", s.MinClose),
			fmt.Sprintf("%.2f", s.MaxClose),
			fmt.Sprintf("%+.4f%%", s.MeanReturn*100),
			fmt.Sprintf("%.4f%%", s.StdDevReturn*100),
		})
	}
	table.Render()
}

// Change returns the percentage move from one price to another.
func Change(from, to market.Price) float64 {
	if from == 0 {
		return 0
	}
	return float64(to-from) / float64(from) * 100
}

package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/market"
	marketview "github.com/zappabad/daytrader/internal/market/view"
	"github.com/zappabad/daytrader/internal/session"
	"github.com/zappabad/daytrader/tui/styles"
)

// Candle is the move of one tick.
type Candle struct {
	Open  market.Price
	High  market.Price
	Low   market.Price
	Close market.Price
	Time  session.ClockTime
}

// CandlesFromPath turns an intraday path into one candle per tick. The
// first candle opens at the day-start price.
func CandlesFromPath(dayStart market.Price, path []marketview.PricePoint) []Candle {
	out := make([]Candle, 0, len(path))
	open := dayStart
	for _, pt := range path {
		c := Candle{Open: open, High: open, Low: open, Close: pt.Price, Time: pt.Time}
		if pt.Price > c.High {
			c.High = pt.Price
		}
		if pt.Price < c.Low {
			c.Low = pt.Price
		}
		out = append(out, c)
		open = pt.Price
	}
	return out
}

// ChartPanel draws today's intraday path of one instrument.
type ChartPanel struct {
	instrument market.Instrument
	candles    []Candle

	focused bool
	width   int
	height  int
}

// NewChartPanel creates a new chart panel.
func NewChartPanel() *ChartPanel {
	return &ChartPanel{}
}

// Init initializes the panel.
func (p *ChartPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *ChartPanel) Update(msg tea.Msg) (*ChartPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *ChartPanel) View() string {
	name := "No instrument"
	if p.instrument.Name != "" {
		name = p.instrument.Name
	}

	var content strings.Builder

	chartWidth := p.width - 4
	chartHeight := p.height - 4
	if chartHeight < 5 {
		chartHeight = 5
	}

	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("Waiting for the first tick..."))
	} else {
		content.WriteString(p.renderChart(chartWidth, chartHeight, p.candles))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📉 Intraday - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *ChartPanel) renderChart(width, height int, candles []Candle) string {
	// 9 chars for the price axis, 1 for the separator
	plotWidth := width - 10
	if plotWidth < 10 {
		plotWidth = 10
	}

	// Each candle takes 2 columns
	candlesToShow := plotWidth / 2
	if candlesToShow < 1 {
		candlesToShow = 1
	}
	display := candles
	if len(candles) > candlesToShow {
		display = candles[len(candles)-candlesToShow:]
	}

	minPrice, maxPrice := display[0].Low, display[0].High
	for _, c := range display {
		if c.Low < minPrice {
			minPrice = c.Low
		}
		if c.High > maxPrice {
			maxPrice = c.High
		}
	}

	// 10% headroom, at least one yen
	priceRange := maxPrice - minPrice
	if priceRange == 0 {
		priceRange = 10
	}
	padding := market.Price(float64(priceRange) * 0.1)
	if padding < 1 {
		padding = 1
	}
	minPrice -= padding
	maxPrice += padding
	if minPrice < 0 {
		minPrice = 0
	}

	// 2 rows for the time axis
	rows := height - 3
	if rows < 5 {
		rows = 5
	}

	var result strings.Builder
	for row := 0; row < rows; row++ {
		price := yToPrice(row, minPrice, maxPrice, rows)
		result.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%8s │", styles.FormatNumber(int64(price)))))

		for _, c := range display {
			style := styles.CandleUpStyle
			if c.Close < c.Open {
				style = styles.CandleDownStyle
			}
			result.WriteString(style.Render(string(candleChar(c, row, minPrice, maxPrice, rows))))
			result.WriteString(" ")
		}
		result.WriteString("\n")
	}

	result.WriteString(styles.ChartAxisStyle.Render("─────────┴"))
	for range display {
		result.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	result.WriteString("\n")

	// Label the top of each hour.
	result.WriteString(styles.ChartAxisStyle.Render("          "))
	for _, c := range display {
		if c.Time%60 == 0 {
			result.WriteString(styles.ChartLabelStyle.Render(fmt.Sprintf("%02d", int(c.Time)/60)))
			continue
		}
		result.WriteString("  ")
	}

	return result.String()
}

// candleChar returns the character drawn for a candle at a given row.
func candleChar(c Candle, row int, minPrice, maxPrice market.Price, height int) rune {
	rowPrice := yToPrice(row, minPrice, maxPrice, height)

	bodyTop, bodyBottom := c.Open, c.Close
	if c.Close > c.Open {
		bodyTop, bodyBottom = c.Close, c.Open
	}

	// Continuous prices map onto discrete rows.
	tolerance := (maxPrice - minPrice) / market.Price(height*2)
	if tolerance < 1 {
		tolerance = 1
	}

	switch {
	case rowPrice <= bodyTop+tolerance && rowPrice >= bodyBottom-tolerance:
		return '┃'
	case rowPrice <= c.High+tolerance && rowPrice > bodyTop:
		return '│'
	case rowPrice >= c.Low-tolerance && rowPrice < bodyBottom:
		return '│'
	}
	return ' '
}

func yToPrice(y int, minPrice, maxPrice market.Price, height int) market.Price {
	if height <= 1 {
		return minPrice
	}
	ratio := float64(y) / float64(height-1)
	return maxPrice - market.Price(ratio*float64(maxPrice-minPrice))
}

// SetFocus sets the focus state of the panel.
func (p *ChartPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *ChartPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetInstrument switches the charted instrument and clears the candles.
func (p *ChartPanel) SetInstrument(in market.Instrument) {
	if in.ID != p.instrument.ID {
		p.candles = nil
	}
	p.instrument = in
}

// Instrument returns the charted instrument.
func (p *ChartPanel) Instrument() market.Instrument {
	return p.instrument
}

// SetPath rebuilds the candles from the instrument's path.
func (p *ChartPanel) SetPath(dayStart market.Price, path []marketview.PricePoint) {
	p.candles = CandlesFromPath(dayStart, path)
}

// Candles returns the candles currently drawn.
func (p *ChartPanel) Candles() []Candle {
	return p.candles
}

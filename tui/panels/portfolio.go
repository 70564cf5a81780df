package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/tui/styles"
)

// PortfolioPanel shows the session clock, cash and holdings.
type PortfolioPanel struct {
	snap    game.Snapshot
	initial int64
	width   int
	height  int
}

// NewPortfolioPanel creates a portfolio panel. initial is the starting
// cash, used for the profit line.
func NewPortfolioPanel(initial int64) *PortfolioPanel {
	return &PortfolioPanel{initial: initial}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// SetSnapshot updates the panel.
func (p *PortfolioPanel) SetSnapshot(snap game.Snapshot) {
	p.snap = snap
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder
	s := p.snap

	status := styles.BuyStyle.Render("OPEN")
	switch {
	case !s.Started:
		status = styles.PlaceholderStyle.Render("NOT STARTED")
	case s.Session.AfterHours:
		status = styles.ActivityImportantStyle.Render("AFTER HOURS")
	case s.Session.Paused:
		status = styles.ActivityImportantStyle.Render("PAUSED")
	}
	content.WriteString(fmt.Sprintf("%s %s  %s\n\n",
		styles.LabelStyle.Render(fmt.Sprintf("Day %d", s.Session.Day)),
		styles.PriceStyle.Render(s.Session.Time.String()),
		status))

	line := func(label, value string) {
		content.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-10s", label)))
		content.WriteString(value)
		content.WriteString("\n")
	}

	line("Cash", styles.FormatYen(s.Portfolio.Cash))
	for _, st := range s.Instruments {
		if st.SharesHeld == 0 {
			continue
		}
		line("  "+st.Instrument.Name, fmt.Sprintf("%s x %s = %s",
			styles.SharesStyle.Render(styles.FormatNumber(int64(st.SharesHeld))),
			styles.FormatNumber(int64(st.CurrentPrice)),
			styles.FormatYen(st.HoldingValue())))
	}
	line("Holdings", styles.FormatYen(s.HoldingsValue()))
	line("Total", styles.PriceStyle.Bold(true).Render(styles.FormatYen(s.TotalAssets())))

	if p.initial > 0 {
		pnl := int64(s.TotalAssets()) - p.initial
		style := styles.PriceUpStyle
		if pnl < 0 {
			style = styles.PriceDownStyle
		}
		line("P/L", style.Render(fmt.Sprintf("%+.2f%%", float64(pnl)/float64(p.initial)*100)))
	}

	title := styles.RenderTitle("💼 Portfolio", false)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return styles.PanelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

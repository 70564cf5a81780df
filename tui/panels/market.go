package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/tui/styles"
)

var (
	upKey   = key.NewBinding(key.WithKeys("up", "k"))
	downKey = key.NewBinding(key.WithKeys("down", "j"))
	buyKey  = key.NewBinding(key.WithKeys("b"))
	sellKey = key.NewBinding(key.WithKeys("s"))
)

// MarketPanel lists every instrument with its price and movement.
type MarketPanel struct {
	states        []market.InstrumentState
	selectedIndex int
	// tradable is false before the start and after hours.
	tradable bool
	focused  bool
	width    int
	height   int
}

// NewMarketPanel creates a new market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused {
		return p, nil
	}

	switch {
	case key.Matches(km, upKey):
		if p.selectedIndex > 0 {
			p.selectedIndex--
		}
		return p, p.selectionCmd()
	case key.Matches(km, downKey):
		if p.selectedIndex < len(p.states)-1 {
			p.selectedIndex++
		}
		return p, p.selectionCmd()
	case key.Matches(km, buyKey):
		return p, p.tradeCmd(ledger.SideBuy)
	case key.Matches(km, sellKey):
		return p, p.tradeCmd(ledger.SideSell)
	}
	return p, nil
}

func (p *MarketPanel) selectionCmd() tea.Cmd {
	st, ok := p.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return InstrumentSelectedMsg{Instrument: st.Instrument}
	}
}

func (p *MarketPanel) tradeCmd(side ledger.Side) tea.Cmd {
	st, ok := p.Selected()
	if !ok || !p.tradable {
		return nil
	}
	return func() tea.Msg {
		return TradeRequestMsg{Instrument: st.Instrument, Side: side}
	}
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-12s %10s %2s %9s %8s", "Name", "Price", "", "Change", "Held")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, st := range p.states {
		change := "-"
		if st.DayStartPrice > 0 {
			pct := float64(st.CurrentPrice-st.DayStartPrice) / float64(st.DayStartPrice) * 100
			change = fmt.Sprintf("%+.2f%%", pct)
		}

		dir := st.Direction()
		price := styles.PriceStyleFor(dir).Render(fmt.Sprintf("%10s", styles.FormatNumber(int64(st.CurrentPrice))))
		held := styles.SharesStyle.Render(fmt.Sprintf("%8s", styles.FormatNumber(int64(st.SharesHeld))))

		row := fmt.Sprintf("%-12s %s %s %9s %s",
			st.Instrument.Name, price, styles.DirectionArrow(dir), change, held)

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.states)-1 {
			content.WriteString("\n")
		}
	}

	if p.focused && p.tradable {
		content.WriteString("\n\n")
		content.WriteString(styles.StatusBarKeyStyle.Render("b") + styles.StatusBarDescStyle.Render(" buy  "))
		content.WriteString(styles.StatusBarKeyStyle.Render("s") + styles.StatusBarDescStyle.Render(" sell"))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Market", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetStates replaces the instrument rows.
func (p *MarketPanel) SetStates(states []market.InstrumentState, tradable bool) {
	p.states = states
	p.tradable = tradable
	if p.selectedIndex >= len(states) {
		p.selectedIndex = max(len(states)-1, 0)
	}
}

// Selected returns the highlighted instrument.
func (p *MarketPanel) Selected() (market.InstrumentState, bool) {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.states) {
		return p.states[p.selectedIndex], true
	}
	return market.InstrumentState{}, false
}

// InstrumentSelectedMsg is sent when the highlighted instrument changes.
type InstrumentSelectedMsg struct {
	Instrument market.Instrument
}

// TradeRequestMsg asks for a trade dialog to open.
type TradeRequestMsg struct {
	Instrument market.Instrument
	Side       ledger.Side
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	marketview "github.com/zappabad/daytrader/internal/market/view"
	"github.com/zappabad/daytrader/tui/panels"
	"github.com/zappabad/daytrader/tui/styles"
)

// Game is the part of the game controller the TUI drives.
type Game interface {
	Start(ctx context.Context) error
	Rollover(ctx context.Context) (game.Snapshot, error)
	BeginTrade(ctx context.Context, id market.InstrumentID, side ledger.Side) (game.Quote, error)
	SubmitTrade(ctx context.Context, id market.InstrumentID, side ledger.Side, qty string) (ledger.Record, error)
	CancelTrade(ctx context.Context) error
	Snapshot() game.Snapshot
	Paths() marketview.PathSnapshot
	Events() <-chan game.Event
}

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket   PanelFocus = 0
	FocusChart    PanelFocus = 1
	FocusActivity PanelFocus = 2
)

const focusCount = 3

// Model is the main TUI application model.
type Model struct {
	game Game

	// Panels
	marketPanel    *panels.MarketPanel
	chartPanel     *panels.ChartPanel
	activityPanel  *panels.ActivityPanel
	portfolioPanel *panels.PortfolioPanel
	tradeDialog    *panels.TradeDialog

	snap    game.Snapshot
	summary []analytics.DaySummary

	// Focus management
	focusedPanel PanelFocus

	// Window dimensions
	width  int
	height int

	// Status
	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(g Game) *Model {
	snap := g.Snapshot()

	m := &Model{
		game:           g,
		marketPanel:    panels.NewMarketPanel(),
		chartPanel:     panels.NewChartPanel(),
		activityPanel:  panels.NewActivityPanel(),
		portfolioPanel: panels.NewPortfolioPanel(int64(snap.Portfolio.Cash)),
		tradeDialog:    panels.NewTradeDialog(),
		focusedPanel:   FocusMarket,
		statusMsg:      "Press enter to open the market",
	}
	m.applySnapshot(snap)
	m.syncFocus()
	if len(snap.Instruments) > 0 {
		m.chartPanel.SetInstrument(snap.Instruments[0].Instrument)
	}
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.chartPanel.Init(),
		m.activityPanel.Init(),
		m.portfolioPanel.Init(),
		m.tradeDialog.Init(),
		m.listenGameEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// The dialog is modal.
		if m.tradeDialog.IsOpen() {
			var cmd tea.Cmd
			m.tradeDialog, cmd = m.tradeDialog.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			if !m.snap.Started {
				return m, m.start()
			}
		case "n":
			if m.snap.Session.AfterHours {
				return m, m.rollover()
			}
		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % focusCount
			m.syncFocus()
			return m, nil
		case "shift+tab":
			m.focusedPanel = (m.focusedPanel + focusCount - 1) % focusCount
			m.syncFocus()
			return m, nil
		case "f1":
			m.focusedPanel = FocusMarket
		case "f2":
			m.focusedPanel = FocusChart
		case "f3":
			m.focusedPanel = FocusActivity
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case gameEventMsg:
		m.handleEvent(msg.Event)
		cmds = append(cmds, m.listenGameEvents())

	case panels.InstrumentSelectedMsg:
		m.chartPanel.SetInstrument(msg.Instrument)
		m.refreshChart()

	case panels.TradeRequestMsg:
		cmds = append(cmds, m.beginTrade(msg))

	case tradeOpenedMsg:
		m.tradeDialog.Open(msg.quote)
		m.snap = m.game.Snapshot()

	case panels.TradeSubmitMsg:
		cmds = append(cmds, m.submitTrade(msg))

	case panels.TradeCancelMsg:
		cmds = append(cmds, m.cancelTrade())

	case tradeResultMsg:
		m.handleTradeResult(msg)

	case statusMsg:
		m.statusMsg = string(msg)

	case tickMsg:
		m.applySnapshot(m.game.Snapshot())
		cmds = append(cmds, m.tickRefresh())
	}

	m.syncFocus()
	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); !ok || m.tradeDialog.IsOpen() {
		return
	}

	var cmd tea.Cmd
	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusChart:
		m.chartPanel, cmd = m.chartPanel.Update(msg)
	case FocusActivity:
		m.activityPanel, cmd = m.activityPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.snap.Session.AfterHours {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderAfterHours())
	}

	m.syncFocus()

	// Layout:
	// ┌──────────────────────────┬──────────────────┐
	// │  Market                  │  Intraday chart  │
	// ├─────────────┬────────────┴──────────────────┤
	// │  Portfolio  │  Activity / Trade dialog      │
	// └─────────────┴───────────────────────────────┘

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	topHeight := (m.height - 3) * 3 / 5
	bottomHeight := m.height - topHeight - 3

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.chartPanel.SetSize(rightWidth, topHeight)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.chartPanel.View(),
	)

	portfolioWidth := m.width / 3
	m.portfolioPanel.SetSize(portfolioWidth, bottomHeight)

	var right string
	if m.tradeDialog.IsOpen() {
		m.tradeDialog.SetSize(m.width-portfolioWidth, bottomHeight)
		right = m.tradeDialog.View()
	} else {
		m.activityPanel.SetSize(m.width-portfolioWidth, bottomHeight)
		right = m.activityPanel.View()
	}
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, m.portfolioPanel.View(), right)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, m.renderStatusBar())
}

func (m *Model) syncFocus() {
	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket && !m.tradeDialog.IsOpen())
	m.chartPanel.SetFocus(m.focusedPanel == FocusChart)
	m.activityPanel.SetFocus(m.focusedPanel == FocusActivity)
}

func (m *Model) renderAfterHours() string {
	var b strings.Builder
	b.WriteString(styles.OverlayTitleStyle.Render(fmt.Sprintf("🌙 Day %d closed", m.snap.Session.Day)))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%-12s %10s %10s %10s %10s %8s", "Name", "Open", "Close", "High", "Low", "Change")
	b.WriteString(styles.HeaderStyle.Render(header))
	for _, s := range m.summary {
		b.WriteString("\n")
		style := styles.PriceUpStyle
		if s.ChangePct < 0 {
			style = styles.PriceDownStyle
		}
		b.WriteString(fmt.Sprintf("%-12s %10s %10s %10s %10s %s",
			s.Instrument.Name,
			styles.FormatNumber(int64(s.Open)),
			styles.FormatNumber(int64(s.Close)),
			styles.FormatNumber(int64(s.High)),
			styles.FormatNumber(int64(s.Low)),
			style.Render(fmt.Sprintf("%+7.2f%%", s.ChangePct))))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.LabelStyle.Render("Total assets  "))
	b.WriteString(styles.FormatYen(m.snap.TotalAssets()))
	b.WriteString("\n\n")
	b.WriteString(styles.StatusBarDescStyle.Render("The next day opens shortly. "))
	b.WriteString(styles.StatusBarKeyStyle.Render("n"))
	b.WriteString(styles.StatusBarDescStyle.Render(" to skip, "))
	b.WriteString(styles.StatusBarKeyStyle.Render("q"))
	b.WriteString(styles.StatusBarDescStyle.Render(" to quit"))

	return styles.OverlayStyle.Render(b.String())
}

func (m *Model) renderStatusBar() string {
	help := []string{
		styles.StatusBarKeyStyle.Render("F1-F3") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("↑↓") + styles.StatusBarDescStyle.Render(" select"),
		styles.StatusBarKeyStyle.Render("b/s") + styles.StatusBarDescStyle.Render(" buy/sell"),
		styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
	}
	if m.tradeDialog.IsOpen() {
		help = []string{
			styles.StatusBarKeyStyle.Render("enter") + styles.StatusBarDescStyle.Render(" execute"),
			styles.StatusBarKeyStyle.Render("←→") + styles.StatusBarDescStyle.Render(" side"),
			styles.StatusBarKeyStyle.Render("esc") + styles.StatusBarDescStyle.Render(" cancel"),
			styles.StatusBarKeyStyle.Render("ctrl+c") + styles.StatusBarDescStyle.Render(" quit"),
		}
	}

	helpStr := strings.Join(help, " │ ")

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(helpStr + status)
}

func (m *Model) applySnapshot(snap game.Snapshot) {
	m.snap = snap
	tradable := snap.Started && !snap.Session.AfterHours
	m.marketPanel.SetStates(snap.Instruments, tradable)
	m.portfolioPanel.SetSnapshot(snap)
	m.refreshChart()
}

func (m *Model) refreshChart() {
	in := m.chartPanel.Instrument()
	st, ok := m.snap.Instrument(in.ID)
	if !ok {
		return
	}
	paths := m.game.Paths()
	m.chartPanel.SetPath(st.DayStartPrice, paths.ByInstrument[in.ID])
}

func (m *Model) handleEvent(ev game.Event) {
	m.applySnapshot(ev.Snapshot)
	st := ev.Snapshot.Session

	entry := func(text string, important bool) {
		m.activityPanel.Add(panels.ActivityEntry{Day: st.Day, Time: st.Time, Text: text, Important: important})
	}

	switch ev.Type {
	case game.EventStarted:
		entry("Market open", true)
		m.statusMsg = ""
	case game.EventDayStarted:
		m.summary = nil
		m.tradeDialog.Close()
		entry(fmt.Sprintf("Day %d open", st.Day), true)
	case game.EventAfterHours:
		m.summary = ev.Summary
		m.tradeDialog.Close()
		entry(fmt.Sprintf("Market closed, total assets %s", styles.FormatYen(ev.Snapshot.TotalAssets())), true)
	case game.EventTradeFilled:
		if ev.Fill != nil {
			entry(describeFill(ev.Fill.Fill), false)
		}
	case game.EventTradeRejected:
		if ev.Err != nil {
			entry("Rejected: "+ev.Err.Error(), false)
		}
	}
}

func describeFill(f ledger.Fill) string {
	return fmt.Sprintf("%s %s x %s @ %s = %s",
		f.Side, f.Instrument.Name,
		styles.FormatNumber(int64(f.Quantity)),
		styles.FormatNumber(int64(f.Price)),
		styles.FormatYen(f.Amount))
}

func (m *Model) handleTradeResult(msg tradeResultMsg) {
	if msg.err == nil {
		m.tradeDialog.Close()
		m.statusMsg = "✓ " + describeFill(msg.record.Fill)
		m.applySnapshot(m.game.Snapshot())
		return
	}

	var te *ledger.TradeError
	if errors.As(msg.err, &te) {
		m.tradeDialog.SetError(te.Reason)
		return
	}
	m.tradeDialog.Close()
	m.statusMsg = "❌ " + msg.err.Error()
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		if err := m.game.Start(context.Background()); err != nil {
			return statusMsg("❌ " + err.Error())
		}
		return nil
	}
}

func (m *Model) rollover() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.game.Rollover(context.Background()); err != nil {
			return statusMsg("❌ " + err.Error())
		}
		return nil
	}
}

func (m *Model) beginTrade(req panels.TradeRequestMsg) tea.Cmd {
	return func() tea.Msg {
		quote, err := m.game.BeginTrade(context.Background(), req.Instrument.ID, req.Side)
		if err != nil {
			return statusMsg("❌ " + err.Error())
		}
		return tradeOpenedMsg{quote: quote}
	}
}

func (m *Model) submitTrade(req panels.TradeSubmitMsg) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.game.SubmitTrade(context.Background(), req.Instrument.ID, req.Side, req.Quantity)
		return tradeResultMsg{record: rec, err: err}
	}
}

func (m *Model) cancelTrade() tea.Cmd {
	m.tradeDialog.Close()
	return func() tea.Msg {
		if err := m.game.CancelTrade(context.Background()); err != nil && !errors.Is(err, game.ErrNoTradeOpen) {
			return statusMsg("❌ " + err.Error())
		}
		return nil
	}
}

func (m *Model) listenGameEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.game.Events()
		if !ok {
			return nil
		}
		return gameEventMsg{Event: ev}
	}
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

// gameEventMsg wraps an event from the controller.
type gameEventMsg struct {
	Event game.Event
}

// tradeOpenedMsg carries the quote of a newly opened dialog.
type tradeOpenedMsg struct {
	quote game.Quote
}

// tradeResultMsg is sent after a trade is processed.
type tradeResultMsg struct {
	record ledger.Record
	err    error
}

// statusMsg replaces the status line.
type statusMsg string

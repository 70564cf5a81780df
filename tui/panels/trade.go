package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/tui/styles"
)

// TradeField represents the currently focused dialog field.
type TradeField int

const (
	FieldSide TradeField = iota
	FieldQuantity
	FieldSubmit
)

var (
	nextFieldKey = key.NewBinding(key.WithKeys("down", "tab"))
	prevFieldKey = key.NewBinding(key.WithKeys("up", "shift+tab"))
	leftKey      = key.NewBinding(key.WithKeys("left"))
	rightKey     = key.NewBinding(key.WithKeys("right"))
	enterKey     = key.NewBinding(key.WithKeys("enter"))
	escKey       = key.NewBinding(key.WithKeys("esc"))
	maxKey       = key.NewBinding(key.WithKeys("ctrl+f"))
)

var sideOptions = []ledger.Side{ledger.SideBuy, ledger.SideSell}

// TradeDialog collects the quantity for a trade. While it is open the
// session clock is paused.
type TradeDialog struct {
	quote         game.Quote
	quantityInput textinput.Model
	sideIndex     int
	currentField  TradeField
	errMsg        string
	open          bool

	width  int
	height int
}

// NewTradeDialog creates a closed trade dialog.
func NewTradeDialog() *TradeDialog {
	quantityInput := textinput.New()
	quantityInput.Placeholder = "Shares"
	quantityInput.Width = 12
	quantityInput.CharLimit = 12

	return &TradeDialog{quantityInput: quantityInput}
}

// Init initializes the panel.
func (p *TradeDialog) Init() tea.Cmd {
	return textinput.Blink
}

// Open shows the dialog for a quote. The quantity field starts focused.
func (p *TradeDialog) Open(q game.Quote) {
	p.quote = q
	p.sideIndex = 0
	if q.Side == ledger.SideSell {
		p.sideIndex = 1
	}
	p.quantityInput.SetValue("")
	p.errMsg = ""
	p.currentField = FieldQuantity
	p.quantityInput.Focus()
	p.open = true
}

// Close hides the dialog.
func (p *TradeDialog) Close() {
	p.open = false
	p.errMsg = ""
	p.quantityInput.Blur()
}

// IsOpen reports whether the dialog is showing.
func (p *TradeDialog) IsOpen() bool {
	return p.open
}

// SetError shows a rejection reason and keeps the dialog open.
func (p *TradeDialog) SetError(msg string) {
	p.errMsg = msg
}

// Side returns the selected side.
func (p *TradeDialog) Side() ledger.Side {
	return sideOptions[p.sideIndex]
}

// Update handles messages for the dialog.
func (p *TradeDialog) Update(msg tea.Msg) (*TradeDialog, tea.Cmd) {
	if !p.open {
		return p, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, escKey):
			return p, func() tea.Msg { return TradeCancelMsg{} }

		case key.Matches(km, enterKey):
			if p.currentField == FieldSubmit || p.currentField == FieldQuantity {
				return p, p.submit()
			}
			p.nextField()
			return p, nil

		case key.Matches(km, nextFieldKey):
			p.nextField()
			return p, nil

		case key.Matches(km, prevFieldKey):
			p.prevField()
			return p, nil

		case key.Matches(km, maxKey):
			p.quantityInput.SetValue(p.maxQuantity().String())
			return p, nil

		case key.Matches(km, leftKey) && p.currentField == FieldSide:
			if p.sideIndex > 0 {
				p.sideIndex--
			}
			return p, nil

		case key.Matches(km, rightKey) && p.currentField == FieldSide:
			if p.sideIndex < len(sideOptions)-1 {
				p.sideIndex++
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	if p.currentField == FieldQuantity {
		p.quantityInput, cmd = p.quantityInput.Update(msg)
		p.errMsg = ""
	}
	return p, cmd
}

func (p *TradeDialog) maxQuantity() market.Quantity {
	if p.Side() == ledger.SideSell {
		return p.quote.MaxSellable
	}
	return p.quote.MaxBuyable
}

func (p *TradeDialog) submit() tea.Cmd {
	msg := TradeSubmitMsg{
		Instrument: p.quote.Instrument.Instrument,
		Side:       p.Side(),
		Quantity:   p.quantityInput.Value(),
	}
	return func() tea.Msg { return msg }
}

// View renders the dialog.
func (p *TradeDialog) View() string {
	var content strings.Builder

	st := p.quote.Instrument
	content.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-10s", "Price")))
	content.WriteString(styles.PriceStyleFor(st.Direction()).Render(styles.FormatYen(st.CurrentPrice)))
	content.WriteString("\n")
	content.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-10s", "Cash")))
	content.WriteString(styles.FormatYen(p.quote.Cash))
	content.WriteString("\n")
	content.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-10s", "Held")))
	content.WriteString(styles.SharesStyle.Render(styles.FormatNumber(int64(st.SharesHeld))))
	content.WriteString("\n\n")

	content.WriteString(p.renderField("Side", FieldSide, p.renderSideField()))
	content.WriteString("\n")

	inputStyle := styles.InputStyle
	if p.currentField == FieldQuantity {
		inputStyle = styles.FocusedInputStyle
	}
	content.WriteString(p.renderField("Qty", FieldQuantity, inputStyle.Render(p.quantityInput.View())))
	content.WriteString("\n")
	content.WriteString(styles.TimeStyle.Render(fmt.Sprintf("          max %s (ctrl+f)", styles.FormatNumber(int64(p.maxQuantity())))))
	content.WriteString("\n\n")

	submitStyle := styles.InputStyle
	if p.currentField == FieldSubmit {
		submitStyle = styles.FocusedInputStyle.Bold(true).Foreground(styles.PrimaryColor)
	}
	content.WriteString(submitStyle.Render("  [Execute]  "))
	content.WriteString("\n\n")
	content.WriteString(p.renderSummary())

	if p.errMsg != "" {
		content.WriteString("\n")
		content.WriteString(styles.ErrorStyle.Render("✗ " + p.errMsg))
	}

	title := styles.RenderTitle(fmt.Sprintf("📝 Trade - %s", st.Instrument.Name), true)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return styles.FocusedPanelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *TradeDialog) renderField(label string, field TradeField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
	}
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + inputView
}

func (p *TradeDialog) renderSideField() string {
	var items []string
	for i, side := range sideOptions {
		style := styles.DropdownItemStyle
		if i == p.sideIndex {
			if p.currentField == FieldSide {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
			if side == ledger.SideBuy {
				style = style.Foreground(styles.BuyColor)
			} else {
				style = style.Foreground(styles.SellColor)
			}
		}
		items = append(items, style.Render(side.String()))
	}
	return strings.Join(items, " | ")
}

func (p *TradeDialog) renderSummary() string {
	sideStyle := styles.BuyStyle
	if p.Side() == ledger.SideSell {
		sideStyle = styles.SellStyle
	}

	estimate := "---"
	if qty, err := ledger.ParseQuantity(p.quantityInput.Value()); err == nil {
		estimate = styles.FormatYen(p.quote.Estimate(qty))
	}

	return styles.HeaderStyle.Render("Estimate: ") + sideStyle.Render(p.Side().String()) + " " + estimate
}

// SetSize sets the panel dimensions.
func (p *TradeDialog) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func (p *TradeDialog) nextField() {
	switch p.currentField {
	case FieldSide:
		p.currentField = FieldQuantity
		p.quantityInput.Focus()
	case FieldQuantity:
		p.currentField = FieldSubmit
		p.quantityInput.Blur()
	case FieldSubmit:
		p.currentField = FieldSide
	}
}

func (p *TradeDialog) prevField() {
	switch p.currentField {
	case FieldSide:
		p.currentField = FieldSubmit
	case FieldQuantity:
		p.currentField = FieldSide
		p.quantityInput.Blur()
	case FieldSubmit:
		p.currentField = FieldQuantity
		p.quantityInput.Focus()
	}
}

// TradeSubmitMsg is sent when the player executes a trade.
type TradeSubmitMsg struct {
	Instrument market.Instrument
	Side       ledger.Side
	Quantity   string
}

// TradeCancelMsg is sent when the player closes the dialog.
type TradeCancelMsg struct{}

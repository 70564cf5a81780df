package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/daytrader/internal/session"
	"github.com/zappabad/daytrader/tui/styles"
)

// ActivityEntry is one line of the activity log.
type ActivityEntry struct {
	Day       int
	Time      session.ClockTime
	Text      string
	Important bool
}

// ActivityPanel shows fills, rejections and session changes, newest last.
type ActivityPanel struct {
	entries       []ActivityEntry
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
	maxItems      int
}

// NewActivityPanel creates a new activity panel.
func NewActivityPanel() *ActivityPanel {
	return &ActivityPanel{
		maxItems: 100,
	}
}

// Init initializes the panel.
func (p *ActivityPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *ActivityPanel) Update(msg tea.Msg) (*ActivityPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused {
		return p, nil
	}

	switch {
	case key.Matches(km, upKey):
		if p.selectedIndex > 0 {
			p.selectedIndex--
			if p.selectedIndex < p.scrollOffset {
				p.scrollOffset = p.selectedIndex
			}
		}
	case key.Matches(km, downKey):
		if p.selectedIndex < len(p.entries)-1 {
			p.selectedIndex++
			visible := p.visibleItems()
			if p.selectedIndex >= p.scrollOffset+visible {
				p.scrollOffset = p.selectedIndex - visible + 1
			}
		}
	}
	return p, nil
}

func (p *ActivityPanel) visibleItems() int {
	visible := p.height - 4
	if visible < 1 {
		visible = 1
	}
	return visible
}

// View renders the panel.
func (p *ActivityPanel) View() string {
	var content strings.Builder

	if len(p.entries) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No activity yet"))
	} else {
		visible := p.visibleItems()
		start := p.scrollOffset
		end := start + visible
		if end > len(p.entries) {
			end = len(p.entries)
		}

		for i := start; i < end; i++ {
			e := p.entries[i]

			text := e.Text
			if limit := p.width - 16; limit > 3 && len(text) > limit {
				text = text[:limit-3] + "..."
			}

			textStyle := styles.ActivityNormalStyle
			if e.Important {
				textStyle = styles.ActivityImportantStyle
			}

			stamp := styles.TimeStyle.Render(fmt.Sprintf("D%d %s", e.Day, e.Time))
			line := fmt.Sprintf("%s %s", stamp, textStyle.Render(text))
			if i == p.selectedIndex && p.focused {
				line = styles.SelectedRowStyle.Render(line)
			}

			content.WriteString(line)
			if i < end-1 {
				content.WriteString("\n")
			}
		}

		if len(p.entries) > visible {
			content.WriteString("\n")
			content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(
				fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.entries))))
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📰 Activity", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *ActivityPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *ActivityPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Add appends an entry and follows the tail.
func (p *ActivityPanel) Add(e ActivityEntry) {
	p.entries = append(p.entries, e)
	if len(p.entries) > p.maxItems {
		p.entries = p.entries[len(p.entries)-p.maxItems:]
	}
	p.selectedIndex = len(p.entries) - 1
	if visible := p.visibleItems(); p.selectedIndex >= p.scrollOffset+visible {
		p.scrollOffset = p.selectedIndex - visible + 1
	}
	if p.scrollOffset > p.selectedIndex {
		p.scrollOffset = p.selectedIndex
	}
}

// Entries returns the log entries, oldest first.
func (p *ActivityPanel) Entries() []ActivityEntry {
	return p.entries
}

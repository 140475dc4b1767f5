// Package tui provides the Bubble Tea terminal scorer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
)

// savePollInterval is how often the view is refreshed while a save is pending.
const savePollInterval = 200 * time.Millisecond

type savePollMsg struct{}

// Model implements the Bubble Tea scoring UI over one live bout.
type Model struct {
	ctx    context.Context
	bouts  services.ScorecardServicer
	req    services.StartRequest
	picker scorecard.PickerConfig

	view   services.BoutView
	err    string
	width  int
	height int

	cursorRound  int
	cursorCorner scorecard.Corner
	dragging     bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	blueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F8DFF"))
	redStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	currentStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	liveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// NewModel starts a bout and returns a model scoring it.
func NewModel(ctx context.Context, bouts services.ScorecardServicer, req services.StartRequest, picker scorecard.PickerConfig) (*Model, error) {
	m := &Model{ctx: ctx, bouts: bouts, req: req, picker: picker}
	if err := m.startBout(); err != nil {
		return nil, err
	}
	return m, nil
}

// Bout returns the current bout projection.
func (m *Model) Bout() services.BoutView {
	return m.view
}

func (m *Model) startBout() error {
	view, err := m.bouts.Start(m.ctx, m.req)
	if err != nil {
		return err
	}
	m.view = view
	m.err = ""
	m.cursorRound = 1
	m.cursorCorner = scorecard.CornerA
	m.dragging = false
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case savePollMsg:
		view, err := m.bouts.Get(m.ctx, m.view.ID)
		return m, m.apply(view, err)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.view.ID
	open := m.view.Picker.Open()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1":
		return m, m.scoreWinner(scorecard.CornerA)
	case "2":
		return m, m.scoreWinner(scorecard.CornerB)
	case "up", "k":
		if open {
			return m, m.apply(m.bouts.Wheel(m.ctx, id, -m.picker.WheelThreshold))
		}
		m.moveCursor(-1)
	case "down", "j":
		if open {
			return m, m.apply(m.bouts.Wheel(m.ctx, id, m.picker.WheelThreshold))
		}
		m.moveCursor(1)
	case "left", "h", "right", "l", "tab":
		if !open {
			m.cursorCorner = m.cursorCorner.Opposite()
		}
	case "enter", " ", "space":
		return m, m.apply(m.bouts.Activate(m.ctx, id, m.cursorRound, m.cursorCorner))
	case "esc":
		m.dragging = false
		return m, m.apply(m.bouts.ClickOutside(m.ctx, id))
	case "x":
		m.dragging = false
		return m, m.apply(m.bouts.CancelPicker(m.ctx, id))
	case "f":
		return m, m.apply(m.bouts.Finalize(m.ctx, id))
	case "n":
		if _, err := m.bouts.Reset(m.ctx, id); err != nil {
			m.err = err.Error()
			return m, nil
		}
		if err := m.startBout(); err != nil {
			m.err = err.Error()
		}
	}
	return m, nil
}

// handleMouse maps terminal rows to picker rows, one row per item.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.view.Picker.Open() {
		return nil
	}
	id := m.view.ID
	y := float64(msg.Y) * m.picker.ItemHeight

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		return m.apply(m.bouts.Wheel(m.ctx, id, -m.picker.WheelThreshold))
	case msg.Button == tea.MouseButtonWheelDown:
		return m.apply(m.bouts.Wheel(m.ctx, id, m.picker.WheelThreshold))
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging = true
		return m.apply(m.bouts.DragStart(m.ctx, id, y))
	case msg.Action == tea.MouseActionMotion && m.dragging:
		return m.apply(m.bouts.DragMove(m.ctx, id, y))
	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.dragging = false
		return m.apply(m.bouts.DragEnd(m.ctx, id))
	}
	return nil
}

func (m *Model) scoreWinner(c scorecard.Corner) tea.Cmd {
	cmd := m.apply(m.bouts.RecordWinner(m.ctx, m.view.ID, c))
	if !m.view.Complete {
		m.cursorRound = m.view.CurrentRound
	}
	return cmd
}

func (m *Model) moveCursor(delta int) {
	next := m.cursorRound + delta
	if next >= 1 && next <= m.view.RoundCount {
		m.cursorRound = next
	}
}

// apply stores the result of a bout operation and keeps polling while a
// save is in flight.
func (m *Model) apply(view services.BoutView, err error) tea.Cmd {
	if err != nil {
		m.err = err.Error()
		return nil
	}
	m.view = view
	m.err = ""
	if view.Save.State == scorecard.SavePending {
		return tea.Tick(savePollInterval, func(time.Time) tea.Msg { return savePollMsg{} })
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	parts := []string{
		m.renderHeader(),
		boxStyle.Render(m.renderCard()),
		m.renderStatus(),
	}
	if m.err != "" {
		parts = append(parts, errorStyle.Render(m.err))
	}
	parts = append(parts, m.renderFooter())
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderHeader() string {
	v := m.view
	title := fmt.Sprintf("%s vs %s", blueStyle.Render(v.CornerA), redStyle.Render(v.CornerB))
	return titleStyle.Render("CrowdScore  ") + title
}

func (m *Model) renderCard() string {
	v := m.view
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %5s %5s\n", "Round", "Blue", "Red")
	for _, r := range v.Rounds {
		label := fmt.Sprintf("R%-5d", r.Round)
		if r.Current {
			label = currentStyle.Render(label)
		}
		a := m.renderCell(r, scorecard.CornerA)
		bb := m.renderCell(r, scorecard.CornerB)
		fmt.Fprintf(&b, "%s %s %s", label, a, bb)
		if v.Picker.Open() && v.Picker.Round == r.Round {
			b.WriteString("  " + m.renderCandidates())
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%-6s %5d %5d", "Total", v.TotalA, v.TotalB)
	return b.String()
}

func (m *Model) renderCell(r services.RoundView, c scorecard.Corner) string {
	value, modified := r.A, r.ModifiedA
	if c == scorecard.CornerB {
		value, modified = r.B, r.ModifiedB
	}

	text := "    -"
	if r.Set || m.pickerOn(r.Round, c) {
		text = fmt.Sprintf("%5d", value)
	}

	style := pendingStyle
	switch {
	case m.pickerOn(r.Round, c):
		style = liveStyle
	case modified:
		style = modifiedStyle
	case r.Set:
		style = lipgloss.NewStyle()
	}
	if r.Round == m.cursorRound && c == m.cursorCorner {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(text)
}

func (m *Model) pickerOn(round int, c scorecard.Corner) bool {
	p := m.view.Picker
	return p.Open() && p.Round == round && p.Corner == c
}

func (m *Model) renderCandidates() string {
	items := make([]string, len(m.view.Candidates))
	for i, c := range m.view.Candidates {
		s := fmt.Sprintf("%d", c)
		if i == m.view.Picker.Index {
			s = cursorStyle.Render(s)
		}
		items[i] = s
	}
	return "[" + strings.Join(items, " ") + "]"
}

func (m *Model) renderStatus() string {
	v := m.view
	segments := []string{fmt.Sprintf("State %s", v.State)}
	switch v.Winner {
	case "":
	case "draw":
		segments = append(segments, "Draw")
	default:
		segments = append(segments, fmt.Sprintf("Winner %s", v.WinnerName))
	}
	if v.Save.State != scorecard.SaveNone {
		save := fmt.Sprintf("Save %s", v.Save.State)
		if v.Save.Method != "" {
			save += " (" + v.Save.Method + ")"
		}
		if v.Save.Error != "" {
			save += ": " + v.Save.Error
		}
		segments = append(segments, save)
	}
	return strings.Join(segments, "  ")
}

func (m *Model) renderFooter() string {
	keys := "1/2 round winner  ↑↓ move  ←→ corner  enter edit  f finalize  n new fight  q quit"
	if m.view.Picker.Open() {
		keys = "↑↓/wheel/drag pick  enter commit  esc close  x cancel"
	}
	return footerStyle.Render(keys)
}

// Package viz renders runs in the terminal: a live view for the 1-D
// well and static trace plots for stored runs.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/scenario"
	"github.com/san-kum/espic/internal/sim"
)

const (
	stripWidth      = 64
	historyCapacity = 600
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives the well scenario step by step and renders the electron
// in its potential well alongside the energy history.
type Model struct {
	driver       *sim.Driver
	well         *scenario.Well
	cfg          sim.Config
	stepsPerTick int

	running       bool
	done          bool
	err           error
	last          plasma.Diagnostics
	energyHistory []float64
	showHelp      bool
}

func NewModel(well *scenario.Well, cfg sim.Config, stepsPerTick int) Model {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	return Model{
		driver:        sim.New(well),
		well:          well,
		cfg:           cfg,
		stepsPerTick:  stepsPerTick,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done && m.err == nil {
				m.running = !m.running
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		diag, err := m.driver.StepOnce(m.cfg)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = diag
		if diag.Step >= m.cfg.Steps {
			m.done = true
			m.running = false
			break
		}
	}

	m.energyHistory = append(m.energyHistory, m.last.Total())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("POTENTIAL WELL") + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString("DONE\n\n")
	case m.running:
		s.WriteString("RUNNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}

	s.WriteString(m.strip() + "\n\n")

	if phi := m.well.Line().Phi; len(phi) > 1 {
		s.WriteString(graphStyle.Render(asciigraph.Plot(phi,
			asciigraph.Height(7),
			asciigraph.Caption("potential [V]"))) + "\n")
	}
	if len(m.energyHistory) > 1 {
		s.WriteString(graphStyle.Render(asciigraph.Plot(m.energyHistory,
			asciigraph.Height(7),
			asciigraph.Caption("total energy [eV]"))) + "\n")
	}

	s.WriteString(m.stats() + "\n")

	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause/resume · q quit · ? help"))
	} else {
		s.WriteString(helpStyle.Render("? help"))
	}
	return s.String()
}

// strip draws the electron's position on a one-line rendering of the
// domain.
func (m Model) strip() string {
	line := m.well.Line()
	span := line.MaxBound() - line.Origin()
	frac := (m.well.Electron().Position.X - line.Origin()) / span
	col := int(frac * float64(stripWidth-1))
	if col < 0 {
		col = 0
	} else if col > stripWidth-1 {
		col = stripWidth - 1
	}

	cells := []rune(strings.Repeat("·", stripWidth))
	cells[col] = 'o'
	return "[" + string(cells) + "]"
}

func (m Model) stats() string {
	rows := []struct {
		label string
		value string
	}{
		{"step", fmt.Sprintf("%d / %d", m.last.Step, m.cfg.Steps)},
		{"time", fmt.Sprintf("%.3f ns", m.last.Time*1e9)},
		{"x", fmt.Sprintf("%.5f m", m.last.Position.X)},
		{"v", fmt.Sprintf("%.3e m/s", m.last.Velocity.X)},
		{"kinetic", fmt.Sprintf("%.4f eV", m.last.Kinetic)},
		{"potential", fmt.Sprintf("%.4f eV", m.last.Potential)},
		{"total", fmt.Sprintf("%.4f eV", m.last.Total())},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label) + valueStyle.Render(r.value) + "\n")
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

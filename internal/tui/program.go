package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Program adapts Model to bubbletea.
type Program struct {
	model Model
	tick  time.Duration
}

func NewProgram(m Model) Program {
	return Program{model: m, tick: TickInterval()}
}

// Model returns the wrapped portfolio model.
func (p Program) Model() Model { return p.model }

func (p Program) Init() tea.Cmd {
	return p.scheduleTick()
}

func (p Program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		p.model = p.model.Update(KeyMsg{Key: msg.String()})
		if p.model.Quitting() {
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		p.model = p.model.Update(ResizeMsg{Width: msg.Width, Height: msg.Height})
	case TickMsg:
		p.model = p.model.Update(msg)
		return p, p.scheduleTick()
	}
	return p, nil
}

func (p Program) View() string {
	return p.model.View()
}

func (p Program) scheduleTick() tea.Cmd {
	if !p.model.isTTY || p.tick <= 0 {
		return nil
	}
	return tea.Tick(p.tick, func(time.Time) tea.Msg { return TickMsg{} })
}

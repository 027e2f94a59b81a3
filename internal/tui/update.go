package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/tui/components/checklist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		bodyHeight := msg.Height - 8
		if bodyHeight < 5 {
			bodyHeight = 5
		}
		m.today.SetSize(msg.Width-4, bodyHeight)
		m.history.SetSize(msg.Width-4, bodyHeight)
		return m, nil

	case tickMsg:
		m.reload()
		return m, m.tick()

	case checklist.ToggleMsg:
		m.toggle(msg.Prayer)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.reload()
			return m, nil
		case m.state == StateToday && key.Matches(msg, m.keys.Quick):
			if p, err := models.ParsePrayer(msg.String()); err == nil {
				m.toggle(p)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateToday:
		m.today, cmd = m.today.Update(msg)
	case StateHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

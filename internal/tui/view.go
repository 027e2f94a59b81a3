package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/salah/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateHistory:
		content = docStyle.Render(m.history.View())
	case StateStats:
		content = docStyle.Render(m.viewStats())
	}

	parts := []string{m.viewTabs(), content}
	if m.warning != "" {
		parts = append(parts, warningStyle.Render(m.warning))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(m.rec.CurrentDate),
		m.progress.ViewAs(float64(m.rec.Percent())/100),
		Summary(m.rec),
	)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", m.today.View()))
}

func (m Model) viewStats() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Total missed: %d", m.rec.MissedTotal())))
	b.WriteString("\n\n")
	for _, s := range m.rec.Stats() {
		b.WriteString(statNameStyle.Render(string(s.Prayer)))
		b.WriteString(subtleStyle.Render(StatLine(s)))
		b.WriteString("\n")
	}
	return b.String()
}

// Summary is the one-line progress text shown under the bar.
func Summary(rec models.Record) string {
	return fmt.Sprintf("%d/%d completed • Streak: %d", len(rec.CompletedToday), models.PrayerCount, rec.Streak)
}

// StatLine describes one prayer's tallies.
func StatLine(s models.PrayerStat) string {
	return fmt.Sprintf("missed %d • marked %d times", s.Missed, s.Marked)
}

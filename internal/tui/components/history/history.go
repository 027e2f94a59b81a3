package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/salah/internal/models"
)

var (
	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(5)

	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type Model struct {
	viewport viewport.Model
	entries  []models.HistoryEntry
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.entries) == 0 {
		return "No history yet. Past days show up here after midnight."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetHistory(entries []models.HistoryEntry) {
	m.entries = entries
	m.Render()
}

func (m *Model) Render() {
	var b strings.Builder
	for _, h := range m.entries {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			dateStyle.Render(h.Date),
			countStyle.Render(fmt.Sprintf("%d/%d", len(h.Completed), models.PrayerCount)),
			Marks(h.Completed),
		))
	}
	m.viewport.SetContent(b.String())
}

// Marks renders one glyph per prayer in canonical order.
func Marks(completed []models.Prayer) string {
	done := make(map[models.Prayer]bool, len(completed))
	for _, p := range completed {
		done[p] = true
	}
	marks := make([]string, 0, models.PrayerCount)
	for _, p := range models.Prayers {
		if done[p] {
			marks = append(marks, doneStyle.Render("✓ "+string(p)))
		} else {
			marks = append(marks, missedStyle.Render("· "+string(p)))
		}
	}
	return strings.Join(marks, " ")
}

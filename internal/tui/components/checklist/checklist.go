package checklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/salah/internal/models"
)

// ToggleMsg asks the parent model to flip a prayer for today.
type ToggleMsg struct {
	Prayer models.Prayer
}

type Item struct {
	Prayer models.Prayer
	Done   bool
	Time   string
	Missed int
}

func (i Item) Title() string {
	if i.Done {
		return "✓ " + string(i.Prayer)
	}
	return "○ " + string(i.Prayer)
}

func (i Item) Description() string {
	if i.Time == "" {
		return fmt.Sprintf("missed %d", i.Missed)
	}
	return fmt.Sprintf("%s • missed %d", i.Time, i.Missed)
}

func (i Item) FilterValue() string { return string(i.Prayer) }

type KeyMap struct {
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter", "x"),
			key.WithHelp("space", "toggle"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}

	return Model{list: l, keys: keys}
}

// SetRecord rebuilds the items from rec, keeping the cursor in place.
func (m *Model) SetRecord(rec models.Record, times map[models.Prayer]string) {
	items := make([]list.Item, 0, models.PrayerCount)
	for _, p := range models.Prayers {
		items = append(items, Item{
			Prayer: p,
			Done:   rec.Has(p),
			Time:   times[p],
			Missed: rec.MissedCounts[p],
		})
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	m.list.Select(idx)
}

// Items returns the current rows, mainly for tests.
func (m Model) Items() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if i, ok := it.(Item); ok {
			out = append(out, i)
		}
	}
	return out
}

// Selected returns the prayer under the cursor.
func (m Model) Selected() (models.Prayer, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return "", false
	}
	return i.Prayer, true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Toggle) {
		if p, ok := m.Selected(); ok {
			return m, func() tea.Msg { return ToggleMsg{Prayer: p} }
		}
		return m, nil
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

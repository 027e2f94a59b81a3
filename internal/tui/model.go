package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/tracker"
	"github.com/julianstephens/salah/internal/tui/components/checklist"
	"github.com/julianstephens/salah/internal/tui/components/history"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateHistory
	StateStats
)

var tabTitles = []string{"Today", "History", "Stats"}

// DefaultRefreshInterval is how often the model reloads the record so a
// midnight rollover or another writer shows up without a keypress.
const DefaultRefreshInterval = time.Minute

type tickMsg time.Time

type Model struct {
	svc      *tracker.Service
	times    map[models.Prayer]string
	rec      models.Record
	state    SessionState
	keys     KeyMap
	help     help.Model
	progress progress.Model
	today    checklist.Model
	history  history.Model
	warning  string
	quitting bool
	width    int
	height   int

	refreshEvery time.Duration
}

func NewModel(svc *tracker.Service, settings models.Settings) Model {
	settings = settings.WithDefaults()
	m := Model{
		svc:          svc,
		times:        settings.PrayerTimes,
		state:        StateToday,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		today:        checklist.New(40, 12),
		history:      history.New(40, 12),
		refreshEvery: DefaultRefreshInterval,
	}
	m.reload()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateToday {
		keys = append(keys, m.keys.Toggle, m.keys.Quick)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	if m.state == StateToday {
		actions = []key.Binding{m.keys.Toggle, m.keys.Quick}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Record returns the record the model is currently showing.
func (m Model) Record() models.Record {
	return m.rec
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// reload reconciles and re-reads the record through the service.
func (m *Model) reload() {
	rec, err := m.svc.Load()
	m.setRecord(rec, err)
}

func (m *Model) toggle(p models.Prayer) {
	rec, err := m.svc.Toggle(p)
	if err != nil && rec.CurrentDate == "" {
		m.warning = err.Error()
		return
	}
	m.setRecord(rec, err)
}

func (m *Model) setRecord(rec models.Record, err error) {
	m.rec = rec
	m.today.SetRecord(rec, m.times)
	m.history.SetHistory(rec.History)
	if err != nil {
		m.warning = "⚠ " + err.Error()
	} else {
		m.warning = ""
	}
}

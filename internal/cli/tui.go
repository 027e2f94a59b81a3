package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	ctx.PerformAutomaticExport()

	p := tea.NewProgram(tui.NewModel(ctx.Service, ctx.Settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// PerformAutomaticExport writes an export and only logs failures.
func (c *Context) PerformAutomaticExport() {
	if _, err := c.exports().CreateExport(); err != nil {
		logger.Warn("Automatic export failed", "error", err)
	}
}

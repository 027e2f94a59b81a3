package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/salah/internal/models"
)

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *Context) error {
	settings, err := ctx.Store.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	fmt.Fprintln(ctx.out(), "Current Settings:")
	for _, kv := range models.SettingsToMap(settings) {
		value := kv[1]
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(ctx.out(), "  %-22s %s\n", kv[0]+":", value)
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting name (timezone, notifications_enabled, firebase_project, or a prayer name for its time)."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	settings, err := ctx.Store.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	updated, err := settings.Set(c.Key, c.Value)
	if err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Settings = updated
	fmt.Fprintf(ctx.out(), "✓ %s set to %s\n", strings.ToLower(c.Key), c.Value)
	return nil
}

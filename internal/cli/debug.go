package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" help:"Show storage location."`
	DumpRecord   DebugDumpRecordCmd   `cmd:"" help:"Dump the stored record JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump the effective settings as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	output := map[string]string{
		"path":       ctx.Store.KV().GetConfigPath(),
		"config_dir": ctx.ConfigDir,
	}
	return printJSON(ctx, output)
}

type DebugDumpRecordCmd struct{}

func (cmd *DebugDumpRecordCmd) Run(ctx *Context) error {
	raw, ok, err := ctx.Store.Raw()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no record stored yet")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		// Show corrupt values as-is.
		fmt.Fprintln(ctx.out(), raw)
		return nil
	}
	fmt.Fprintln(ctx.out(), buf.String())
	return nil
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *Context) error {
	settings, err := ctx.Store.LoadSettings()
	if err != nil {
		return err
	}
	return printJSON(ctx, settings)
}

func printJSON(ctx *Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(ctx.out(), string(jsonBytes))
	return nil
}

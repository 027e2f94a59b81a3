package cli

import "fmt"

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	rec, err := ctx.Service.Load()
	if err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(ctx.Settings); err != nil {
		return err
	}
	fmt.Fprintf(ctx.out(), "Initialized salah storage at: %s\n", ctx.Store.KV().GetConfigPath())
	fmt.Fprintf(ctx.out(), "Tracking %s\n", rec.CurrentDate)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/logger"
)

type SyncCmd struct {
	Timeout time.Duration `help:"Give up on the remote store after this long." default:"30s"`
}

func (c *SyncCmd) Run(ctx *Context) error {
	if ctx.UserID == "" {
		return fmt.Errorf("%w: no user id configured; run 'salah user new' or pass --user", apperrors.ErrRemoteUnavailable)
	}
	if ctx.Remote == nil {
		return fmt.Errorf("%w: remote sync is not configured", apperrors.ErrRemoteUnavailable)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	rs, err := ctx.Remote(runCtx, ctx.Settings)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}
	defer func() {
		if err := rs.Close(); err != nil {
			logger.Warn("Failed to close remote store", "error", err)
		}
	}()

	res, err := ctx.Service.Sync(runCtx, rs, ctx.UserID)
	if err != nil {
		return err
	}

	if res.FirstContact {
		fmt.Fprintln(ctx.out(), "✓ Remote copy created from local record")
	} else {
		fmt.Fprintln(ctx.out(), "✓ Synced with remote copy")
	}
	if res.Drained > 0 {
		fmt.Fprintf(ctx.out(), "  %d pending change(s) sent\n", res.Drained)
	}
	fmt.Fprintln(ctx.out(), summary(res.Record))
	return nil
}

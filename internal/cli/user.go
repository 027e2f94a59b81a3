package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/salah/internal/keyring"
	"github.com/julianstephens/salah/internal/storage"
)

type UserSetCmd struct {
	ID string `arg:"" help:"User id the remote copy is stored under."`
}

func (c *UserSetCmd) Run(ctx *Context) error {
	id := strings.TrimSpace(c.ID)
	if err := keyring.SetUserID(id); err != nil {
		return err
	}
	fmt.Fprintf(ctx.out(), "✓ User id stored in OS keyring: %s\n", id)
	return nil
}

type UserShowCmd struct{}

func (c *UserShowCmd) Run(ctx *Context) error {
	if ctx.UserID != "" {
		fmt.Fprintln(ctx.out(), ctx.UserID)
		return nil
	}
	id, err := keyring.GetUserID()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no user id configured. Use 'salah user new' to generate one")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.out(), id)
	return nil
}

type UserNewCmd struct{}

func (c *UserNewCmd) Run(ctx *Context) error {
	id, err := keyring.NewUserID()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out(), "✓ Generated user id: %s\n", id)
	fmt.Fprintln(ctx.out(), "  Use the same id on other devices to share one record.")
	return nil
}

type UserClearCmd struct{}

func (c *UserClearCmd) Run(ctx *Context) error {
	if err := keyring.DeleteUserID(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no user id found in keyring")
		}
		return err
	}
	fmt.Fprintln(ctx.out(), "✓ User id removed from OS keyring")
	return nil
}

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if !storage.IsPostgresConfig(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := storage.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so an embedded password is acceptable here.
		fmt.Fprintln(ctx.out(), "⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Fprintln(ctx.out(), "   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}
	fmt.Fprintln(ctx.out(), "✓ Connection string stored successfully in OS keyring")
	fmt.Fprintln(ctx.out(), "  Run salah with --config=keyring to use it")
	return nil
}

// KeyringGetCmd prints the stored connection string with the password masked
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'salah keyring set' to store one")
		}
		return err
	}
	fmt.Fprintln(ctx.out(), maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes database connection credentials from the OS keyring
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	fmt.Fprintln(ctx.out(), "✓ Connection string deleted from OS keyring")
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		fmt.Fprintln(ctx.out(), "❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Fprintln(ctx.out(), "✓ OS keyring is available")
	if _, err := keyring.GetConnectionString(); err == nil {
		fmt.Fprintln(ctx.out(), "✓ Connection string is stored in keyring")
	} else {
		fmt.Fprintln(ctx.out(), "ℹ No connection string stored in keyring")
	}
	if _, err := keyring.GetUserID(); err == nil {
		fmt.Fprintln(ctx.out(), "✓ User id is stored in keyring")
	} else {
		fmt.Fprintln(ctx.out(), "ℹ No user id stored in keyring")
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if storage.IsPostgresConfig(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}

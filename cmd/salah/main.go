package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/salah/internal/cli"
	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/keyring"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/notifier"
	"github.com/julianstephens/salah/internal/remote"
	"github.com/julianstephens/salah/internal/storage"
	"github.com/julianstephens/salah/internal/tracker"
)

// keyringConfig selects the PostgreSQL connection string stored in the OS keyring.
const keyringConfig = "keyring"

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Storage location: a .db file (SQLite), a directory, a PostgreSQL URL without password, or 'keyring' to use the connection string stored in the OS keyring." default:"~/.config/salah/salah.db" env:"SALAH_CONFIG"`
	Debug   bool   `help:"Log at debug level and mirror logs to stderr." env:"SALAH_DEBUG"`
	UserID  string `name:"user" help:"Remote user id. Defaults to the id stored in the OS keyring." env:"SALAH_USER"`

	Init    cli.InitCmd    `cmd:"" help:"Initialize salah storage."`
	Tui     cli.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Status  cli.StatusCmd  `cmd:"" help:"Show today's progress."`
	Toggle  cli.ToggleCmd  `cmd:"" help:"Mark or unmark a prayer for today."`
	Stats   cli.StatsCmd   `cmd:"" help:"Show per-prayer tallies."`
	History cli.HistoryCmd `cmd:"" help:"Show past days."`
	Export  struct {
		Create  cli.ExportCreateCmd  `cmd:"" help:"Write an export of the current record." default:"1"`
		List    cli.ExportListCmd    `cmd:"" help:"List available exports."`
		Restore cli.ExportRestoreCmd `cmd:"" help:"Restore the record from an export."`
	} `cmd:"" help:"Manage record exports."`
	Import cli.ImportCmd `cmd:"" help:"Import a record from a JSON file."`
	Reset  cli.ResetCmd  `cmd:"" help:"Clear all prayer data."`
	Sync   cli.SyncCmd   `cmd:"" help:"Merge with the remote copy and publish the result."`
	Remind cli.RemindCmd `cmd:"" help:"Run the reminder daemon in the foreground."`
	Notify cli.NotifyCmd `cmd:"" hidden:"" help:"Send a notification (used for testing the tray app)."`
	User   struct {
		Set   cli.UserSetCmd   `cmd:"" help:"Store the remote user id."`
		Show  cli.UserShowCmd  `cmd:"" help:"Show the remote user id." default:"1"`
		New   cli.UserNewCmd   `cmd:"" help:"Generate and store a new user id."`
		Clear cli.UserClearCmd `cmd:"" help:"Remove the stored user id."`
	} `cmd:"" help:"Manage the remote user id."`
	Settings struct {
		Show cli.SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
		Set  cli.SettingsSetCmd  `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Doctor   cli.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	DebugCmd cli.DebugCmd  `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily prayer tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	config, err := resolveConfig(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	configDir := storage.ConfigDir(config)
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	kv, err := storage.OpenInitialized(config)
	if err != nil {
		logger.Warn("Storage unavailable, keeping the record in memory", "config", config, "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v; changes made in this session will not be saved\n", err)
	}

	store := storage.NewRecordStore(kv)
	settings, err := store.LoadSettings()
	if err != nil {
		logger.Warn("Using default settings", "error", err)
	}

	clk, err := clock.New(settings.Timezone)
	if err != nil {
		closeStore(kv)
		apperrors.Fatal(err)
	}

	userID := resolveUserID(CLI.UserID)
	var opts []tracker.Option
	if userID != "" {
		opts = append(opts, tracker.WithChangeQueue())
	}

	appCtx := &cli.Context{
		Store:     store,
		Service:   tracker.NewService(store, clk, opts...),
		Clock:     clk,
		Settings:  settings,
		ConfigDir: configDir,
		UserID:    userID,
		Remote:    openFirestore,
		Notifier:  notifier.Fallback{notifier.NewTray(), notifier.NewConsole(os.Stdout)},
	}

	err = ctx.Run(appCtx)
	closeStore(kv)
	if err != nil {
		apperrors.Fatal(err)
	}
}

func closeStore(kv storage.KV) {
	if err := kv.Close(); err != nil {
		logger.Warn("Failed to close storage", "error", err)
	}
}

// resolveConfig swaps the keyring placeholder for the stored connection
// string and rejects PostgreSQL URLs given on the command line with a password.
func resolveConfig(config string) (string, error) {
	if config == keyringConfig {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return "", fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		return connStr, nil
	}
	if storage.IsPostgresConfig(config) {
		if err := storage.ValidateConnString(config); err != nil {
			if errors.Is(err, storage.ErrEmbeddedCredentials) {
				return "", fmt.Errorf("%w; store it with 'salah keyring set' and pass --config=keyring, or use .pgpass", err)
			}
			return "", err
		}
	}
	return config, nil
}

func resolveUserID(flag string) string {
	if flag != "" {
		return flag
	}
	id, err := keyring.GetUserID()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup for user id failed", "error", err)
		}
		return ""
	}
	return id
}

func openFirestore(ctx context.Context, settings models.Settings) (remote.Store, error) {
	project := settings.FirebaseProject
	if project == "" {
		project = os.Getenv("SALAH_FIREBASE_PROJECT")
	}
	if project == "" {
		return nil, errors.New("no Firebase project configured; run 'salah settings set firebase_project <id>'")
	}
	fs, err := remote.NewFirestore(ctx, remote.FirestoreConfig{
		ProjectID:       project,
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	})
	if err != nil {
		return nil, err
	}
	return fs, nil
}

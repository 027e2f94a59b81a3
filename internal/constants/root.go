package constants

import "time"

const (
	AppName            = "salah"
	DefaultKeyringUser = "database-connection"
	KeyringRemoteUser  = "remote-user-id"
	DefaultConfigPath  = "~/.config/salah/salah.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// LegacyDateFormat is the Date.toDateString() layout written by the original web app
	LegacyDateFormat = "Mon Jan 02 2006"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Storage keys
	RecordKey   = "salahData"
	SettingsKey = "salahSettings"

	// Export constants
	MaxExports       = 14
	ExportDirName    = "exports"
	ExportFilePrefix = "salah-"
	ExportFileSuffix = ".json"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "salah-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.salah"
	TrayExecutablePrefix   = "salah-tray"

	// RolloverSpec fires at 00:01:05 local time every day (seconds field enabled)
	RolloverSpec = "5 1 0 * * *"

	// Remote sync constants
	RemoteCollection = "salahUsers"
	RemoteDataField  = "data"

	// MaxWriteAttempts bounds the read-compute-write retries in the tracker service
	MaxWriteAttempts = 3
)

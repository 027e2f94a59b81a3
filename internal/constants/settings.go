package constants

const (
	// Setting names accepted by `salah settings set`
	SettingTimezone             = "timezone"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingFirebaseProject      = "firebase_project"

	// Default Settings Values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultNotificationsEnabled = true

	// Placeholder prayer times. These are not astronomically computed.
	DefaultFajrTime    = "05:00"
	DefaultDhuhrTime   = "12:30"
	DefaultAsrTime     = "16:00"
	DefaultMaghribTime = "19:00"
	DefaultIshaTime    = "20:30"
)

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/salah/internal/constants"
)

// Settings represents application-wide settings
type Settings struct {
	Timezone             string            `json:"timezone"`                   // IANA timezone name or "Local"
	NotificationsEnabled bool              `json:"notifications_enabled"`      // whether reminders are sent
	PrayerTimes          map[Prayer]string `json:"prayer_times"`               // HH:MM placeholder time per prayer
	FirebaseProject      string            `json:"firebase_project,omitempty"` // Firestore project for remote sync
}

// DefaultSettings returns the settings used before anything is configured.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		PrayerTimes: map[Prayer]string{
			Fajr:    constants.DefaultFajrTime,
			Dhuhr:   constants.DefaultDhuhrTime,
			Asr:     constants.DefaultAsrTime,
			Maghrib: constants.DefaultMaghribTime,
			Isha:    constants.DefaultIshaTime,
		},
	}
}

// WithDefaults fills any unset field from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.Timezone == "" {
		s.Timezone = def.Timezone
	}
	times := make(map[Prayer]string, PrayerCount)
	for _, p := range Prayers {
		if v, ok := s.PrayerTimes[p]; ok && v != "" {
			times[p] = v
		} else {
			times[p] = def.PrayerTimes[p]
		}
	}
	s.PrayerTimes = times
	return s
}

// Validate checks the timezone and every prayer time.
func (s Settings) Validate() error {
	if s.Timezone != "" && s.Timezone != "Local" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	for p, v := range s.PrayerTimes {
		if !p.IsValid() {
			return fmt.Errorf("unknown prayer %q in prayer times", p)
		}
		if _, err := time.Parse(constants.TimeFormat, v); err != nil {
			return fmt.Errorf("invalid time for %s (expected HH:MM): %w", p, err)
		}
	}
	return nil
}

// Set applies a single named setting. Prayer times use the prayer name as key
// ("fajr", "Maghrib", ...).
func (s Settings) Set(key, value string) (Settings, error) {
	s = s.WithDefaults()
	switch strings.ToLower(strings.TrimSpace(key)) {
	case constants.SettingTimezone:
		s.Timezone = value
	case constants.SettingNotificationsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", constants.SettingNotificationsEnabled, err)
		}
		s.NotificationsEnabled = b
	case constants.SettingFirebaseProject:
		s.FirebaseProject = value
	default:
		p, err := ParsePrayer(key)
		if err != nil {
			return Settings{}, fmt.Errorf("unknown setting %q", key)
		}
		s.PrayerTimes[p] = value
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SettingsToMap converts a Settings struct to ordered key-value pairs for display.
func SettingsToMap(settings Settings) [][2]string {
	settings = settings.WithDefaults()
	out := [][2]string{
		{constants.SettingTimezone, settings.Timezone},
		{constants.SettingNotificationsEnabled, strconv.FormatBool(settings.NotificationsEnabled)},
		{constants.SettingFirebaseProject, settings.FirebaseProject},
	}
	for _, p := range Prayers {
		out = append(out, [2]string{strings.ToLower(string(p)), settings.PrayerTimes[p]})
	}
	return out
}

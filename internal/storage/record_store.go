package storage

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/models"
)

// RecordStore persists the daily record and the settings as JSON under
// fixed keys of a KV backend.
type RecordStore struct {
	kv KV
}

func NewRecordStore(kv KV) *RecordStore {
	return &RecordStore{kv: kv}
}

// KV returns the backend the store writes through.
func (s *RecordStore) KV() KV {
	return s.kv
}

// Raw returns the stored record bytes exactly as persisted.
func (s *RecordStore) Raw() (string, bool, error) {
	raw, ok, err := s.kv.Get(constants.RecordKey)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", apperrors.ErrStorageRead, err)
	}
	return raw, ok, nil
}

// Load returns the persisted record and the raw value it was decoded from.
// An absent key yields a default record for today. A failed read or an
// unparseable value also yields a default record, together with an error
// wrapping ErrStorageRead so the caller can report it. The raw value is empty
// on a failed read and holds the stored bytes when only decoding failed.
func (s *RecordStore) Load(today string) (models.Record, string, error) {
	raw, ok, err := s.Raw()
	if err != nil {
		return models.DefaultRecord(today), "", err
	}
	if !ok {
		return models.DefaultRecord(today), "", nil
	}

	rec, err := DecodeRecord(raw, today)
	if err != nil {
		return models.DefaultRecord(today), raw, fmt.Errorf("%w: %v", apperrors.ErrStorageRead, err)
	}
	return rec, raw, nil
}

// Save normalizes and writes rec, returning the raw value written.
func (s *RecordStore) Save(rec models.Record) (string, error) {
	data, err := json.Marshal(rec.Normalize())
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageWrite, err)
	}
	if err := s.kv.Set(constants.RecordKey, string(data)); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageWrite, err)
	}
	return string(data), nil
}

// LoadSettings returns the stored settings with defaults filled in. An
// absent or unreadable value yields the defaults.
func (s *RecordStore) LoadSettings() (models.Settings, error) {
	raw, ok, err := s.kv.Get(constants.SettingsKey)
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to read settings: %w", err)
	}
	if !ok {
		return models.DefaultSettings(), nil
	}
	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings.WithDefaults(), nil
}

func (s *RecordStore) SaveSettings(settings models.Settings) error {
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(constants.SettingsKey, string(data)); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// DecodeRecord parses a stored record value, filling absent fields from the
// default record for today.
func DecodeRecord(raw, today string) (models.Record, error) {
	patch, err := models.ParsePatch([]byte(raw))
	if err != nil {
		return models.Record{}, err
	}
	rec, err := patch.Apply(models.DefaultRecord(today))
	if err != nil {
		return models.Record{}, err
	}
	if rec.CurrentDate == "" {
		rec.CurrentDate = today
	}
	return rec, nil
}

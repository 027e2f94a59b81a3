package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/julianstephens/salah/internal/errors"
)

// Patch holds the top-level fields present in a JSON record object. Fields
// absent from the object are absent from the patch, which is what lets an
// overlay replace only the fields a candidate actually carries.
type Patch map[string]json.RawMessage

// Record field names as they appear on the wire.
const (
	FieldCurrentDate    = "currentDate"
	FieldCompletedToday = "completedToday"
	FieldMissedCounts   = "missedCounts"
	FieldStreak         = "streak"
	FieldHistory        = "history"
	FieldQueue          = "queue"

	// Field names written by the original web app.
	legacyFieldDate      = "date"
	legacyFieldCompleted = "completed"
)

// ParsePatch parses data as a JSON object. Anything else is an error.
func ParsePatch(data []byte) (Patch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var p Patch
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Patch{}
	}
	return p, nil
}

// PatchFromRecord returns a patch carrying every field of r.
func PatchFromRecord(r Record) (Patch, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return ParsePatch(data)
}

// Has reports whether the patch carries a non-null value for field.
func (p Patch) Has(field string) bool {
	raw, ok := p[field]
	return ok && !isNull(raw)
}

// Apply overlays the patch onto base field by field. A present field fully
// replaces the base field; null fields are treated as absent. The result is
// normalized. A field of the wrong shape fails the whole apply.
func (p Patch) Apply(base Record) (Record, error) {
	out := base.Clone()

	dateField := FieldCurrentDate
	if !p.Has(dateField) {
		dateField = legacyFieldDate
	}
	if err := p.decode(dateField, &out.CurrentDate); err != nil {
		return Record{}, err
	}

	completedField := FieldCompletedToday
	if !p.Has(completedField) {
		completedField = legacyFieldCompleted
	}
	if p.Has(completedField) {
		var completed []Prayer
		if err := p.decode(completedField, &completed); err != nil {
			return Record{}, err
		}
		out.CompletedToday = completed
	}

	if p.Has(FieldMissedCounts) {
		var missed map[Prayer]int
		if err := p.decode(FieldMissedCounts, &missed); err != nil {
			return Record{}, err
		}
		out.MissedCounts = missed
	}

	if err := p.decode(FieldStreak, &out.Streak); err != nil {
		return Record{}, err
	}

	if p.Has(FieldHistory) {
		var history []HistoryEntry
		if err := p.decode(FieldHistory, &history); err != nil {
			return Record{}, err
		}
		out.History = history
	}

	if p.Has(FieldQueue) {
		var queue []QueueOp
		if err := p.decode(FieldQueue, &queue); err != nil {
			return Record{}, err
		}
		out.Queue = queue
	}

	return out.Normalize(), nil
}

// Overlay applies the patch like Apply but skips fields that fail to decode
// instead of rejecting the whole patch. It returns the skipped field names.
func (p Patch) Overlay(base Record) (Record, []string) {
	out := base.Clone()
	var skipped []string
	for _, field := range overlayOrder {
		if !p.Has(field) {
			continue
		}
		next, err := Patch{field: p[field]}.Apply(out)
		if err != nil {
			skipped = append(skipped, field)
			continue
		}
		out = next
	}
	return out.Normalize(), skipped
}

// Legacy names come first so the current names win when both are present.
var overlayOrder = []string{
	legacyFieldDate,
	legacyFieldCompleted,
	FieldCurrentDate,
	FieldCompletedToday,
	FieldMissedCounts,
	FieldStreak,
	FieldHistory,
	FieldQueue,
}

// MarshalJSON encodes the patch as a JSON object.
func (p Patch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage(p))
}

func (p Patch) decode(field string, dst interface{}) error {
	if !p.Has(field) {
		return nil
	}
	if err := json.Unmarshal(p[field], dst); err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return nil
}

// ParseImport turns an externally supplied payload into a record by
// overlaying it on a fresh default record for today. A candidate without a
// date gets today's date. Malformed input wraps ErrImportValidation.
func ParseImport(data []byte, today string) (Record, error) {
	patch, err := ParsePatch(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", apperrors.ErrImportValidation, err)
	}
	rec, err := patch.Apply(DefaultRecord(today))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", apperrors.ErrImportValidation, err)
	}
	if rec.CurrentDate == "" {
		rec.CurrentDate = today
	}
	return rec, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

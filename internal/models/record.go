package models

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/salah/internal/constants"
)

// HistoryEntry is one past day. Entries are never modified once prepended.
type HistoryEntry struct {
	Date      string   `json:"date"` // YYYY-MM-DD format
	Completed []Prayer `json:"completed"`
}

// QueueOp is a pending remote sync operation. The tracker treats it as opaque.
type QueueOp struct {
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	CreatedAt string          `json:"createdAt,omitempty"` // RFC3339 timestamp
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Record is the persisted root entity: today's completion set plus the
// running tallies and the history of past days.
type Record struct {
	CurrentDate    string         `json:"currentDate"` // YYYY-MM-DD format
	CompletedToday []Prayer       `json:"completedToday"`
	MissedCounts   map[Prayer]int `json:"missedCounts"`
	Streak         int            `json:"streak"`
	History        []HistoryEntry `json:"history"` // most recent first
	Queue          []QueueOp      `json:"queue"`
}

// PrayerStat summarizes one prayer across the record.
type PrayerStat struct {
	Prayer Prayer
	Missed int
	Marked int
}

// DefaultRecord returns a fresh record for the given day.
func DefaultRecord(today string) Record {
	missed := make(map[Prayer]int, PrayerCount)
	for _, p := range Prayers {
		missed[p] = 0
	}
	return Record{
		CurrentDate:    today,
		CompletedToday: []Prayer{},
		MissedCounts:   missed,
		Streak:         0,
		History:        []HistoryEntry{},
		Queue:          []QueueOp{},
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.CompletedToday = append([]Prayer{}, r.CompletedToday...)
	out.MissedCounts = make(map[Prayer]int, len(r.MissedCounts))
	for p, n := range r.MissedCounts {
		out.MissedCounts[p] = n
	}
	out.History = make([]HistoryEntry, len(r.History))
	for i, h := range r.History {
		out.History[i] = HistoryEntry{Date: h.Date, Completed: append([]Prayer{}, h.Completed...)}
	}
	out.Queue = make([]QueueOp, len(r.Queue))
	for i, op := range r.Queue {
		op.Payload = append(json.RawMessage(nil), op.Payload...)
		out.Queue[i] = op
	}
	return out
}

// Has reports whether p is marked for the current day.
func (r Record) Has(p Prayer) bool {
	return containsPrayer(r.CompletedToday, p)
}

// Toggle flips p in the current day's completion set, keeping canonical
// prayer order. Missed counts, history, streak and queue are left alone;
// un-marking a prayer is not a miss.
func Toggle(r Record, p Prayer) Record {
	out := r.Clone()
	if !p.IsValid() {
		return out
	}
	if out.Has(p) {
		kept := make([]Prayer, 0, len(out.CompletedToday))
		for _, c := range out.CompletedToday {
			if c != p {
				kept = append(kept, c)
			}
		}
		out.CompletedToday = kept
		return out
	}
	out.CompletedToday = cleanPrayers(append(out.CompletedToday, p))
	return out
}

// Percent is the share of today's prayers marked, rounded to a whole percent.
func (r Record) Percent() int {
	return int(math.Round(float64(len(r.CompletedToday)) / float64(PrayerCount) * 100))
}

// MissedTotal sums the per-prayer missed counts.
func (r Record) MissedTotal() int {
	total := 0
	for _, n := range r.MissedCounts {
		total += n
	}
	return total
}

// Stats returns per-prayer missed counts and how many history days marked it.
func (r Record) Stats() []PrayerStat {
	stats := make([]PrayerStat, 0, PrayerCount)
	for _, p := range Prayers {
		marked := 0
		for _, h := range r.History {
			if containsPrayer(h.Completed, p) {
				marked++
			}
		}
		stats = append(stats, PrayerStat{Prayer: p, Missed: r.MissedCounts[p], Marked: marked})
	}
	return stats
}

// Normalize returns a copy of r coerced into a valid shape: every prayer has a
// non-negative missed count, completion sets only hold known prayers once, and
// no collection is nil.
func (r Record) Normalize() Record {
	out := r.Clone()
	out.CurrentDate = NormalizeDate(out.CurrentDate)
	out.CompletedToday = cleanPrayers(out.CompletedToday)

	missed := make(map[Prayer]int, PrayerCount)
	for _, p := range Prayers {
		n := out.MissedCounts[p]
		if n < 0 {
			n = 0
		}
		missed[p] = n
	}
	out.MissedCounts = missed

	if out.Streak < 0 {
		out.Streak = 0
	}
	out.History = cleanHistory(out.History, out.CurrentDate)
	return out
}

// cleanHistory orders entries newest first with strictly decreasing dates.
// Entries with an unreadable date, a date repeated from an earlier entry, or
// a date not before the current day are dropped.
func cleanHistory(history []HistoryEntry, currentDate string) []HistoryEntry {
	_, err := time.Parse(constants.DateFormat, currentDate)
	hasCurrent := err == nil

	out := make([]HistoryEntry, 0, len(history))
	seen := make(map[string]bool, len(history))
	for _, h := range history {
		date := NormalizeDate(h.Date)
		if _, err := time.Parse(constants.DateFormat, date); err != nil {
			continue
		}
		if seen[date] || (hasCurrent && date >= currentDate) {
			continue
		}
		seen[date] = true
		out = append(out, HistoryEntry{Date: date, Completed: cleanPrayers(h.Completed)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// NormalizeDate converts legacy "Mon Jan 02 2006" dates to YYYY-MM-DD. Other
// values are returned trimmed and otherwise untouched.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(constants.DateFormat, s); err == nil {
		return s
	}
	if t, err := time.Parse(constants.LegacyDateFormat, s); err == nil {
		return t.Format(constants.DateFormat)
	}
	return s
}

// cleanPrayers keeps the known prayers in ps once each, in canonical order.
func cleanPrayers(ps []Prayer) []Prayer {
	out := make([]Prayer, 0, len(ps))
	for _, p := range Prayers {
		if containsPrayer(ps, p) {
			out = append(out, p)
		}
	}
	return out
}

func containsPrayer(ps []Prayer, p Prayer) bool {
	for _, c := range ps {
		if c == p {
			return true
		}
	}
	return false
}

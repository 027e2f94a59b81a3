package tracker

import "github.com/julianstephens/salah/internal/models"

// Reconcile brings rec forward to today. A record already dated today is
// returned unchanged with false. Otherwise exactly one rollover step is
// applied, treating rec.CurrentDate as the day before today no matter how
// many days actually passed:
//   - every prayer not marked on that day gets one more miss
//   - the day is prepended to history as it stood
//   - the streak grows by one only if all prayers were marked; a partial day
//     leaves it unchanged
//   - the record moves to today with nothing marked
//
// Reconcile never touches storage; callers persist the result.
func Reconcile(rec models.Record, today string) (models.Record, bool) {
	if rec.CurrentDate == today {
		return rec, false
	}

	out := rec.Clone()
	if out.MissedCounts == nil {
		out.MissedCounts = make(map[models.Prayer]int, models.PrayerCount)
	}
	for _, p := range models.Prayers {
		if !out.Has(p) {
			out.MissedCounts[p]++
		}
	}

	day := models.HistoryEntry{
		Date:      out.CurrentDate,
		Completed: append([]models.Prayer{}, out.CompletedToday...),
	}
	out.History = append([]models.HistoryEntry{day}, out.History...)

	if len(out.History[0].Completed) == models.PrayerCount {
		out.Streak++
	}

	out.CurrentDate = today
	out.CompletedToday = []models.Prayer{}
	return out, true
}

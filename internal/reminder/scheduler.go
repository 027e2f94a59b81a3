package reminder

import (
	"sync"
	"time"

	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
)

// Scheduler arms one-shot reminder timers for the current day. Nothing is
// persisted; callers re-arm on every start.
type Scheduler struct {
	mu     sync.Mutex
	clock  clock.Clock
	timers map[models.Prayer]clock.Timer
	gen    uint64
}

func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clock:  clk,
		timers: make(map[models.Prayer]clock.Timer),
	}
}

// ScheduleAll cancels any pending timers, then arms one timer per target that
// is still in the future. Targets at or before now are skipped, never fired
// late. It returns the number of timers armed.
func (s *Scheduler) ScheduleAll(targets map[models.Prayer]time.Time, onFire func(models.Prayer)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	gen := s.gen
	now := s.clock.Now()

	for _, p := range models.Prayers {
		at, ok := targets[p]
		if !ok {
			continue
		}
		if !at.After(now) {
			logger.Debug("Skipping past reminder", "prayer", p, "at", at.Format(time.RFC3339))
			continue
		}
		p := p
		s.timers[p] = s.clock.AfterFunc(at.Sub(now), func() {
			s.mu.Lock()
			if s.gen != gen {
				s.mu.Unlock()
				return
			}
			delete(s.timers, p)
			s.mu.Unlock()
			onFire(p)
		})
		logger.Debug("Armed reminder", "prayer", p, "at", at.Format(time.RFC3339))
	}
	return len(s.timers)
}

// CancelAll stops every pending timer and returns how many were stopped. It is
// safe to call with nothing pending.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// Pending returns the prayers with an armed timer, in prayer order.
func (s *Scheduler) Pending() []models.Prayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Prayer
	for _, p := range models.Prayers {
		if _, ok := s.timers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Scheduler) cancelLocked() int {
	n := 0
	for p, t := range s.timers {
		if t.Stop() {
			n++
		}
		delete(s.timers, p)
	}
	s.gen++
	return n
}

// TargetTimes returns the reminder time of each prayer on day (YYYY-MM-DD),
// taken from the configured placeholder times.
func TargetTimes(day string, settings models.Settings, loc *time.Location) (map[models.Prayer]time.Time, error) {
	settings = settings.WithDefaults()
	out := make(map[models.Prayer]time.Time, models.PrayerCount)
	for _, p := range models.Prayers {
		at, err := clock.CombineDateAndTime(day, settings.PrayerTimes[p], loc)
		if err != nil {
			return nil, err
		}
		out[p] = at
	}
	return out, nil
}

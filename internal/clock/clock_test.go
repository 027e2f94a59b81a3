package clock

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{"empty is local", "", false},
		{"Local", "Local", false},
		{"UTC", "UTC", false},
		{"invalid", "Invalid/Timezone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation(%q) error = %v, wantErr %v", tt.timezone, err, tt.wantErr)
			}
			if !tt.wantErr && loc == nil {
				t.Error("expected a location")
			}
		})
	}
}

func TestNewRejectsInvalidTimezone(t *testing.T) {
	if _, err := New("Nowhere/Special"); err == nil {
		t.Error("expected error for invalid timezone")
	}
	c, err := New("UTC")
	if err != nil {
		t.Fatalf("New(UTC) failed: %v", err)
	}
	if c.Now().Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", c.Now().Location())
	}
}

func TestCombineDateAndTime(t *testing.T) {
	got, err := CombineDateAndTime("2026-02-01", "12:30", time.UTC)
	if err != nil {
		t.Fatalf("CombineDateAndTime failed: %v", err)
	}
	want := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := CombineDateAndTime("2026-02-01", "noon", time.UTC); err == nil {
		t.Error("expected error for invalid time")
	}
	if _, err := CombineDateAndTime("yesterday", "12:30", time.UTC); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)
	want := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := NextMidnight(now); !got.Equal(want) {
		t.Errorf("NextMidnight(%v) = %v, want %v", now, got, want)
	}
}

func TestFakeClockFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(2*time.Hour, func() { fired = append(fired, "second") })
	c.AfterFunc(time.Hour, func() { fired = append(fired, "first") })
	stopped := c.AfterFunc(90*time.Minute, func() { fired = append(fired, "stopped") })
	c.AfterFunc(5*time.Hour, func() { fired = append(fired, "later") })

	if !stopped.Stop() {
		t.Error("expected Stop to report an armed timer")
	}
	if stopped.Stop() {
		t.Error("expected second Stop to report false")
	}

	c.Advance(3 * time.Hour)

	if len(fired) != 2 || fired[0] != "first" || fired[1] != "second" {
		t.Errorf("unexpected firing order %v", fired)
	}
	if c.Pending() != 1 {
		t.Errorf("expected one pending timer, got %d", c.Pending())
	}
	if Today(c) != "2026-02-01" {
		t.Errorf("unexpected Today %q", Today(c))
	}
}

package models

import (
	"fmt"
	"strings"
)

// Prayer is one of the five fixed daily prayers.
type Prayer string

const (
	Fajr    Prayer = "Fajr"
	Dhuhr   Prayer = "Dhuhr"
	Asr     Prayer = "Asr"
	Maghrib Prayer = "Maghrib"
	Isha    Prayer = "Isha"
)

// Prayers is the fixed, ordered prayer set. It must not be modified.
var Prayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

// PrayerCount is the number of tracked prayers per day.
var PrayerCount = len(Prayers)

// IsValid reports whether p is one of the fixed prayers.
func (p Prayer) IsValid() bool {
	return p.Index() >= 0
}

// Index returns the position of p in Prayers, or -1.
func (p Prayer) Index() int {
	for i, name := range Prayers {
		if name == p {
			return i
		}
	}
	return -1
}

// ParsePrayer resolves a prayer name case-insensitively. A 1-based position
// ("1" for Fajr) is accepted too.
func ParsePrayer(s string) (Prayer, error) {
	s = strings.TrimSpace(s)
	for i, p := range Prayers {
		if strings.EqualFold(string(p), s) || s == fmt.Sprintf("%d", i+1) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q (expected one of %s)", s, joinPrayers(Prayers))
}

func joinPrayers(ps []Prayer) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

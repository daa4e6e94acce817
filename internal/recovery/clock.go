// Package recovery holds the pure time math behind recovery countdowns.
// Everything here is deterministic for given inputs; callers inject the
// current instant in epoch millis.
package recovery

import "time"

// Millisecond counts for each breakdown unit.
const (
	DayMillis    int64 = 24 * 60 * 60 * 1000
	HourMillis   int64 = 60 * 60 * 1000
	MinuteMillis int64 = 60 * 1000
	SecondMillis int64 = 1000
)

// Breakdown is a non-negative remaining-duration split into descending
// units.
type Breakdown struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// IsZero reports whether no time remains.
func (b Breakdown) IsZero() bool {
	return b == Breakdown{}
}

// Remaining splits max(0, endMillis-nowMillis) into days, hours, minutes
// and seconds, each term the remainder after extracting the larger units.
// All zeros when endMillis <= nowMillis.
func Remaining(nowMillis, endMillis int64) Breakdown {
	left := endMillis - nowMillis
	if left <= 0 {
		return Breakdown{}
	}
	b := Breakdown{Days: left / DayMillis}
	left %= DayMillis
	b.Hours = left / HourMillis
	left %= HourMillis
	b.Minutes = left / MinuteMillis
	left %= MinuteMillis
	b.Seconds = left / SecondMillis
	return b
}

// EndTimestamp computes the recovery end instant for a cycle started at
// createdAtMillis with the given nominal recovery duration in days.
func EndTimestamp(createdAtMillis int64, recoveryTimeDays int) int64 {
	return createdAtMillis + int64(recoveryTimeDays)*DayMillis
}

// DateString formats an instant as the YYYY-MM-DD date stored on entries
// and recovery history items.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

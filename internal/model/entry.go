package model

import (
	"github.com/google/uuid"
)

// Intensity enumerates workout intensity levels.
type Intensity string

const (
	// IntensityEasy is a light workout.
	IntensityEasy Intensity = "easy"
	// IntensityMedium is a moderate workout.
	IntensityMedium Intensity = "medium"
	// IntensityHard is a heavy workout.
	IntensityHard Intensity = "hard"
)

// Score maps an intensity to a numeric value used by averages.
func (i Intensity) Score() int {
	switch i {
	case IntensityEasy:
		return 1
	case IntensityMedium:
		return 2
	case IntensityHard:
		return 3
	default:
		return 0
	}
}

// Status enumerates recovery states of a muscle entry.
type Status string

const (
	// StatusRecovering means the muscle is still within its recovery cycle.
	StatusRecovering Status = "recovering"
	// StatusReady means enough recovery days were logged.
	StatusReady Status = "ready"
)

// DeriveStatus computes the recovery status from logged progress. Status is
// never settable directly; it always follows from these two values.
func DeriveStatus(progressDays, recoveryTimeDays int) Status {
	if progressDays >= recoveryTimeDays {
		return StatusReady
	}
	return StatusRecovering
}

// RecoveryDay is one logged recovery day. History is append-only and
// cumulative across cycles.
type RecoveryDay struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// MuscleEntry represents a logged workout set for a muscle group together
// with its recovery cycle state.
type MuscleEntry struct {
	ID      uuid.UUID
	OwnerID uuid.UUID

	MuscleName       string
	Intensity        Intensity
	Weight           string
	Sets             int
	Reps             int
	RecoveryTimeDays int
	Notes            string

	// CreatedAt is the date (YYYY-MM-DD) of the workout that opened the
	// current cycle; CreatedAtMillis is the same instant in epoch millis.
	CreatedAt       string
	CreatedAtMillis int64
	// RecoveryEndMillis is CreatedAtMillis + RecoveryTimeDays worth of
	// millis, recomputed whenever either input changes.
	RecoveryEndMillis int64

	RecoveryProgressDays int
	RecoveryHistory      []RecoveryDay
	LastWorkout          string

	Status Status
}

// DerivedStatus re-derives the status from the entry's own counters.
func (e MuscleEntry) DerivedStatus() Status {
	return DeriveStatus(e.RecoveryProgressDays, e.RecoveryTimeDays)
}

// EntryDraft is the caller-supplied part of a new entry. Everything else is
// stamped by the entry service or assigned by the remote store.
type EntryDraft struct {
	MuscleName       string    `validate:"required"`
	Intensity        Intensity `validate:"required,oneof=easy medium hard"`
	Weight           string
	Sets             int `validate:"required,gt=0"`
	Reps             int `validate:"required,gt=0"`
	RecoveryTimeDays int `validate:"required,gt=0"`
	Notes            string
}

// EntryPatch describes a field-by-field update to an entry. Nil fields are
// left untouched. There is deliberately no way to patch owner, id, progress
// or status through this type.
type EntryPatch struct {
	MuscleName       *string
	Intensity        *Intensity
	Weight           *string
	Sets             *int
	Reps             *int
	RecoveryTimeDays *int
	Notes            *string

	// RecoveryEndMillis is set by the entry service when a patched
	// RecoveryTimeDays requires the end timestamp to move.
	RecoveryEndMillis *int64
}

// IsZero reports whether the patch carries no changes.
func (p EntryPatch) IsZero() bool {
	return p.MuscleName == nil && p.Intensity == nil && p.Weight == nil &&
		p.Sets == nil && p.Reps == nil && p.RecoveryTimeDays == nil &&
		p.Notes == nil && p.RecoveryEndMillis == nil
}

// Apply merges the patch into a copy of the entry, field by field.
func (p EntryPatch) Apply(e MuscleEntry) MuscleEntry {
	if p.MuscleName != nil {
		e.MuscleName = *p.MuscleName
	}
	if p.Intensity != nil {
		e.Intensity = *p.Intensity
	}
	if p.Weight != nil {
		e.Weight = *p.Weight
	}
	if p.Sets != nil {
		e.Sets = *p.Sets
	}
	if p.Reps != nil {
		e.Reps = *p.Reps
	}
	if p.RecoveryTimeDays != nil {
		e.RecoveryTimeDays = *p.RecoveryTimeDays
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.RecoveryEndMillis != nil {
		e.RecoveryEndMillis = *p.RecoveryEndMillis
	}
	return e
}

// CycleReset carries the values stamped onto an entry when a new workout
// cycle starts. Recovery history is intentionally not part of it.
type CycleReset struct {
	CreatedAt         string
	CreatedAtMillis   int64
	RecoveryEndMillis int64
	LastWorkout       string
}

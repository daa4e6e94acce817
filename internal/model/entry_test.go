package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		days     int
		want     Status
	}{
		{name: "fresh cycle", progress: 0, days: 3, want: StatusRecovering},
		{name: "mid cycle", progress: 2, days: 3, want: StatusRecovering},
		{name: "exactly done", progress: 3, days: 3, want: StatusReady},
		{name: "past done", progress: 5, days: 3, want: StatusReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.progress, tt.days))
		})
	}
}

func TestIntensityScore(t *testing.T) {
	assert.Equal(t, 1, IntensityEasy.Score())
	assert.Equal(t, 2, IntensityMedium.Score())
	assert.Equal(t, 3, IntensityHard.Score())
	assert.Zero(t, Intensity("unknown").Score())
}

func TestEntryPatch_Apply(t *testing.T) {
	entry := MuscleEntry{
		MuscleName:       "chest",
		Intensity:        IntensityEasy,
		Sets:             3,
		Reps:             10,
		RecoveryTimeDays: 2,
	}

	name := "back"
	sets := 5
	patched := EntryPatch{MuscleName: &name, Sets: &sets}.Apply(entry)

	assert.Equal(t, "back", patched.MuscleName)
	assert.Equal(t, 5, patched.Sets)
	assert.Equal(t, 10, patched.Reps, "unset fields stay put")
	assert.Equal(t, IntensityEasy, patched.Intensity)

	assert.Equal(t, "chest", entry.MuscleName, "Apply works on a copy")
}

func TestEntryPatch_IsZero(t *testing.T) {
	assert.True(t, EntryPatch{}.IsZero())

	name := "back"
	assert.False(t, EntryPatch{MuscleName: &name}.IsZero())
}

func TestResolveDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", ResolveDisplayName("Alice", "Profile", "a@b.c"))
	assert.Equal(t, "Profile", ResolveDisplayName("", "Profile", "a@b.c"))
	assert.Equal(t, "a", ResolveDisplayName("", "", "a@b.c"))
	assert.Equal(t, "noatsign", ResolveDisplayName("", "", "noatsign"))
}

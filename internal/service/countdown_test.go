package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/recovery"
)

func TestCountdown_Observe_EmitsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewCountdown()
	c.now = func() time.Time { return time.UnixMilli(0) }
	c.interval = time.Hour // keep the ticker out of the test

	entry := model.MuscleEntry{
		RecoveryEndMillis: recovery.DayMillis + recovery.HourMillis + recovery.MinuteMillis + recovery.SecondMillis,
	}

	out := c.Observe(ctx, entry)

	select {
	case got := <-out:
		assert.Equal(t, recovery.Breakdown{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}, got)
	case <-time.After(time.Second):
		t.Fatal("no immediate emission")
	}
}

func TestCountdown_Observe_ZeroAfterDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewCountdown()
	c.now = func() time.Time { return time.UnixMilli(recovery.DayMillis) }
	c.interval = time.Hour

	out := c.Observe(ctx, model.MuscleEntry{RecoveryEndMillis: recovery.HourMillis})

	got := <-out
	assert.True(t, got.IsZero(), "past deadline must read all zeros, not negatives")
}

func TestCountdown_Observe_TicksAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	c := NewCountdown()
	c.interval = 5 * time.Millisecond

	out := c.Observe(ctx, model.MuscleEntry{RecoveryEndMillis: time.Now().UnixMilli() + recovery.DayMillis})

	<-out // immediate value
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-out:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "channel should close after cancel")
}

func TestCountdown_Remaining(t *testing.T) {
	c := NewCountdown()
	c.now = func() time.Time { return time.UnixMilli(0) }

	got := c.Remaining(model.MuscleEntry{RecoveryEndMillis: 2 * recovery.DayMillis})
	assert.Equal(t, recovery.Breakdown{Days: 2}, got)
}

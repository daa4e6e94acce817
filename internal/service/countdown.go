package service

import (
	"context"
	"time"

	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/recovery"
)

// Countdown turns an entry's recovery end timestamp into a live stream of
// remaining-time breakdowns.
type Countdown struct {
	now      func() time.Time
	interval time.Duration
}

func NewCountdown() *Countdown {
	return &Countdown{
		now:      time.Now,
		interval: time.Second,
	}
}

// Observe emits the remaining recovery time for an entry once immediately
// and then every tick until the context is cancelled. Once the countdown
// reaches zero it keeps emitting the all-zero breakdown; deciding when to
// stop watching is the caller's call. Slow consumers only ever see the
// most recent value.
func (c *Countdown) Observe(ctx context.Context, entry model.MuscleEntry) <-chan recovery.Breakdown {
	out := make(chan recovery.Breakdown, 1)

	emit := func() {
		remaining := recovery.Remaining(c.now().UnixMilli(), entry.RecoveryEndMillis)
		select {
		case out <- remaining:
		default:
			// Drop the stale value and replace it.
			select {
			case <-out:
			default:
			}
			select {
			case out <- remaining:
			default:
			}
		}
	}

	emit()

	go func() {
		defer close(out)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	return out
}

// Remaining is the one-shot form of Observe for callers that render a
// single frame.
func (c *Countdown) Remaining(entry model.MuscleEntry) recovery.Breakdown {
	return recovery.Remaining(c.now().UnixMilli(), entry.RecoveryEndMillis)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avasiliev/muscletrack/internal/model"
)

const entriesChannel = "muscle_entries_changed"

// Subscribe opens a live snapshot stream for one owner. It holds a
// dedicated connection LISTENing on the entries channel; the row trigger
// publishes the owner id, and every matching notification triggers a full
// re-query delivered through onSnapshot. The initial snapshot is delivered
// before the first notification. Snapshot query errors go to onError and the
// subscription keeps waiting; a dead listen connection also reports through
// onError but ends the stream.
func (r *EntryRepository) Subscribe(
	ctx context.Context,
	ownerID uuid.UUID,
	onSnapshot func([]model.MuscleEntry),
	onError func(error),
) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	conn, err := r.db.Acquire(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to acquire subscription connection: %w", err)
	}

	if _, err := conn.Exec(subCtx, "LISTEN "+entriesChannel); err != nil {
		conn.Release()
		cancel()
		return nil, fmt.Errorf("failed to listen on %s: %w", entriesChannel, err)
	}

	go func() {
		defer func() {
			// The connection carries LISTEN state, do not hand it back
			// to the pool alive.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()

		r.deliverSnapshot(subCtx, ownerID, onSnapshot, onError)

		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				onError(fmt.Errorf("failed to wait for notification: %w", err))
				return
			}
			if notification.Payload != ownerID.String() {
				continue
			}
			r.deliverSnapshot(subCtx, ownerID, onSnapshot, onError)
		}
	}()

	return cancel, nil
}

func (r *EntryRepository) deliverSnapshot(
	ctx context.Context,
	ownerID uuid.UUID,
	onSnapshot func([]model.MuscleEntry),
	onError func(error),
) {
	entries, err := r.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		r.logger.Error("entry subscription: snapshot query failed",
			"owner_id", ownerID,
			"error", err.Error())
		onError(err)
		return
	}
	onSnapshot(entries)
}

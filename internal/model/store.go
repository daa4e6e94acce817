package model

import (
	"context"

	"github.com/google/uuid"
)

// EntryStore defines the remote document store operations for muscle
// entries. Implementations assign ids on Create and must keep them stable.
type EntryStore interface {
	Create(ctx context.Context, entry MuscleEntry) (MuscleEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (MuscleEntry, error)
	// GetByOwner returns the owner's entries ordered by creation time
	// descending.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]MuscleEntry, error)
	Update(ctx context.Context, id uuid.UUID, patch EntryPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LogRecoveryDay atomically appends one history item, increments the
	// progress counter and sets the caller-derived status in a single
	// remote operation.
	LogRecoveryDay(ctx context.Context, id uuid.UUID, day RecoveryDay, status Status) error
	StartCycle(ctx context.Context, id uuid.UUID, reset CycleReset) error
	// Subscribe opens a live snapshot stream filtered by owner, ordered by
	// creation time descending. Every emitted snapshot is the owner's full
	// entry set. Store-side errors go to onError. The returned cancel func
	// stops delivery.
	Subscribe(ctx context.Context, ownerID uuid.UUID, onSnapshot func([]MuscleEntry), onError func(error)) (func(), error)
}

// ProfileStore persists per-user profile records keyed by user id.
type ProfileStore interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, profile Profile) error
	GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) error
}

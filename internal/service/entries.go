package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/avasiliev/muscletrack/internal/logger"
	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/recovery"
)

// Default windows for the derived queries.
const (
	defaultSinceDays   = 7
	defaultAverageDays = 30
)

var validate = validator.New()

// Identity is the slice of the session manager the entry service depends
// on.
type Identity interface {
	CurrentUser() (model.User, bool)
}

// Entries is the authoritative local cache of the current user's entries,
// synchronized with the remote store. Every mutating operation requires a
// signed-in session and re-checks entry ownership against the current
// identity; remote writes happen before the local cache is touched, so a
// rejected write leaves the cache exactly as it was.
type Entries struct {
	store   model.EntryStore
	session Identity
	logger  *logger.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache []model.MuscleEntry

	loading atomic.Bool

	errMu   sync.Mutex
	lastErr error
}

func NewEntries(store model.EntryStore, session Identity, logger *logger.Logger) *Entries {
	return &Entries{
		store:   store,
		session: session,
		logger:  logger,
		now:     time.Now,
	}
}

// Load queries the remote store for the current user's entries and
// replaces the local cache wholesale. Callers must not assume any
// particular order of the cached set.
func (e *Entries) Load(ctx context.Context) error {
	user, ok := e.session.CurrentUser()
	if !ok {
		return e.fail(model.ErrUnauthenticated)
	}

	e.loading.Store(true)
	defer e.loading.Store(false)

	entries, err := e.store.GetByOwner(ctx, user.ID)
	if err != nil {
		return e.fail(&model.RemoteError{Op: "load", Err: err})
	}

	e.replaceCache(entries)
	e.logger.Debug("entries: loaded", "user_id", user.ID, "count", len(entries))
	return nil
}

// Add validates the draft, stamps the server-side fields and writes the
// new entry. The remote-assigned id lands in the cache only after the
// write succeeds.
func (e *Entries) Add(ctx context.Context, draft model.EntryDraft) (uuid.UUID, error) {
	user, ok := e.session.CurrentUser()
	if !ok {
		return uuid.Nil, e.fail(model.ErrUnauthenticated)
	}

	if err := validateDraft(draft); err != nil {
		return uuid.Nil, e.fail(err)
	}

	e.loading.Store(true)
	defer e.loading.Store(false)

	now := e.now()
	millis := now.UnixMilli()
	entry := model.MuscleEntry{
		OwnerID:              user.ID,
		MuscleName:           draft.MuscleName,
		Intensity:            draft.Intensity,
		Weight:               draft.Weight,
		Sets:                 draft.Sets,
		Reps:                 draft.Reps,
		RecoveryTimeDays:     draft.RecoveryTimeDays,
		Notes:                draft.Notes,
		CreatedAt:            recovery.DateString(now),
		CreatedAtMillis:      millis,
		RecoveryEndMillis:    recovery.EndTimestamp(millis, draft.RecoveryTimeDays),
		RecoveryProgressDays: 0,
		RecoveryHistory:      []model.RecoveryDay{},
		Status:               model.StatusRecovering,
	}

	created, err := e.store.Create(ctx, entry)
	if err != nil {
		return uuid.Nil, e.fail(&model.RemoteError{Op: "add", Err: err})
	}

	e.mu.Lock()
	e.cache = append(e.cache, created)
	e.mu.Unlock()

	e.logger.Info("entries: added", "entry_id", created.ID, "muscle", created.MuscleName)
	return created.ID, nil
}

// Update merges a field patch into an owned entry. A patched recovery time
// moves the end timestamp, anchored to the entry's existing cycle start.
func (e *Entries) Update(ctx context.Context, id uuid.UUID, patch model.EntryPatch) error {
	entry, err := e.authorize(id)
	if err != nil {
		return err
	}

	// The end timestamp is derived state; callers cannot move it directly.
	patch.RecoveryEndMillis = nil
	if patch.RecoveryTimeDays != nil && *patch.RecoveryTimeDays != entry.RecoveryTimeDays {
		end := recovery.EndTimestamp(entry.CreatedAtMillis, *patch.RecoveryTimeDays)
		patch.RecoveryEndMillis = &end
	}

	e.loading.Store(true)
	defer e.loading.Store(false)

	if err := e.store.Update(ctx, id, patch); err != nil {
		return e.fail(&model.RemoteError{Op: "update", Err: err})
	}

	e.mutateCached(id, func(cached model.MuscleEntry) model.MuscleEntry {
		return patch.Apply(cached)
	})

	e.logger.Debug("entries: updated", "entry_id", id)
	return nil
}

// Delete removes an owned entry remotely first, then from the cache.
func (e *Entries) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := e.authorize(id); err != nil {
		return err
	}

	e.loading.Store(true)
	defer e.loading.Store(false)

	if err := e.store.Delete(ctx, id); err != nil {
		return e.fail(&model.RemoteError{Op: "delete", Err: err})
	}

	e.mu.Lock()
	e.cache = slices.DeleteFunc(e.cache, func(entry model.MuscleEntry) bool {
		return entry.ID == id
	})
	e.mu.Unlock()

	e.logger.Info("entries: deleted", "entry_id", id)
	return nil
}

// LogRecoveryDay logs one recovery day: the progress counter goes up by
// exactly one (uncapped; status derivation handles the cap), one history
// item is appended and the status is re-derived.
func (e *Entries) LogRecoveryDay(ctx context.Context, id uuid.UUID, note string) error {
	entry, err := e.authorize(id)
	if err != nil {
		return err
	}

	day := model.RecoveryDay{Date: recovery.DateString(e.now()), Note: note}
	newProgress := entry.RecoveryProgressDays + 1
	status := model.DeriveStatus(newProgress, entry.RecoveryTimeDays)

	e.loading.Store(true)
	defer e.loading.Store(false)

	if err := e.store.LogRecoveryDay(ctx, id, day, status); err != nil {
		return e.fail(&model.RemoteError{Op: "log-recovery-day", Err: err})
	}

	e.mutateCached(id, func(cached model.MuscleEntry) model.MuscleEntry {
		cached.RecoveryProgressDays++
		cached.RecoveryHistory = append(cached.RecoveryHistory, day)
		cached.Status = model.DeriveStatus(cached.RecoveryProgressDays, cached.RecoveryTimeDays)
		return cached
	})

	e.logger.Debug("entries: recovery day logged", "entry_id", id, "progress", newProgress)
	return nil
}

// StartNewCycle resets progress and timestamps for a fresh workout while
// keeping the entry's identity and its cumulative history.
func (e *Entries) StartNewCycle(ctx context.Context, id uuid.UUID) error {
	entry, err := e.authorize(id)
	if err != nil {
		return err
	}

	now := e.now()
	millis := now.UnixMilli()
	reset := model.CycleReset{
		CreatedAt:         recovery.DateString(now),
		CreatedAtMillis:   millis,
		RecoveryEndMillis: recovery.EndTimestamp(millis, entry.RecoveryTimeDays),
		LastWorkout:       recovery.DateString(now),
	}

	e.loading.Store(true)
	defer e.loading.Store(false)

	if err := e.store.StartCycle(ctx, id, reset); err != nil {
		return e.fail(&model.RemoteError{Op: "start-cycle", Err: err})
	}

	e.mutateCached(id, func(cached model.MuscleEntry) model.MuscleEntry {
		cached.RecoveryProgressDays = 0
		cached.Status = model.StatusRecovering
		cached.CreatedAt = reset.CreatedAt
		cached.CreatedAtMillis = reset.CreatedAtMillis
		cached.RecoveryEndMillis = reset.RecoveryEndMillis
		cached.LastWorkout = reset.LastWorkout
		return cached
	})

	e.logger.Info("entries: new cycle started", "entry_id", id)
	return nil
}

// Subscribe opens the live snapshot stream for the current user. Every
// snapshot replaces the cache unconditionally, even when it races an
// optimistic local update that has not round-tripped yet; the snapshot
// wins. Returns the cancel func that stops delivery.
func (e *Entries) Subscribe(ctx context.Context, onChange func([]model.MuscleEntry), onError func(error)) (func(), error) {
	user, ok := e.session.CurrentUser()
	if !ok {
		return nil, e.fail(model.ErrUnauthenticated)
	}

	cancel, err := e.store.Subscribe(ctx, user.ID,
		func(entries []model.MuscleEntry) {
			e.replaceCache(entries)
			if onChange != nil {
				onChange(entries)
			}
		},
		func(err error) {
			e.fail(&model.RemoteError{Op: "subscribe", Err: err})
			if onError != nil {
				onError(err)
			}
		},
	)
	if err != nil {
		return nil, e.fail(&model.RemoteError{Op: "subscribe", Err: err})
	}

	return cancel, nil
}

// Entries returns a copy of the cached set.
func (e *Entries) Entries() []model.MuscleEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.cache)
}

// ByMuscleGroup returns the cached entries for one muscle group.
func (e *Entries) ByMuscleGroup(name string) []model.MuscleEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var matched []model.MuscleEntry
	for _, entry := range e.cache {
		if entry.MuscleName == name {
			matched = append(matched, entry)
		}
	}
	return matched
}

// Since returns the cached entries whose cycle started within the last
// days. Non-positive days fall back to the default week window.
func (e *Entries) Since(days int) []model.MuscleEntry {
	if days <= 0 {
		days = defaultSinceDays
	}
	cutoff := e.now().UnixMilli() - int64(days)*recovery.DayMillis

	e.mu.RLock()
	defer e.mu.RUnlock()

	var matched []model.MuscleEntry
	for _, entry := range e.cache {
		if entry.CreatedAtMillis >= cutoff {
			matched = append(matched, entry)
		}
	}
	return matched
}

// AverageIntensity returns the mean intensity score for a muscle group
// over the last days (default 30). Zero when nothing matches, including
// the empty-cache case.
func (e *Entries) AverageIntensity(group string, days int) float64 {
	if days <= 0 {
		days = defaultAverageDays
	}
	cutoff := e.now().UnixMilli() - int64(days)*recovery.DayMillis

	e.mu.RLock()
	defer e.mu.RUnlock()

	sum, count := 0, 0
	for _, entry := range e.cache {
		if entry.CreatedAtMillis < cutoff {
			continue
		}
		if group != "" && entry.MuscleName != group {
			continue
		}
		sum += entry.Intensity.Score()
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Loading reports whether a remote operation is in flight.
func (e *Entries) Loading() bool {
	return e.loading.Load()
}

// LastError returns the most recent failure, for callers that ignored a
// return value.
func (e *Entries) LastError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// authorize resolves an entry from the cache and gates it on the current
// identity. A foreign-owned entry is never mutated, even when a stale
// cache from a prior session still holds it.
func (e *Entries) authorize(id uuid.UUID) (model.MuscleEntry, error) {
	user, ok := e.session.CurrentUser()
	if !ok {
		return model.MuscleEntry{}, e.fail(model.ErrUnauthenticated)
	}

	e.mu.RLock()
	idx := slices.IndexFunc(e.cache, func(entry model.MuscleEntry) bool {
		return entry.ID == id
	})
	var entry model.MuscleEntry
	if idx >= 0 {
		entry = e.cache[idx]
	}
	e.mu.RUnlock()

	if idx < 0 {
		return model.MuscleEntry{}, e.fail(model.ErrNotFound)
	}
	if entry.OwnerID != user.ID {
		e.logger.Info("entries: ownership mismatch", "entry_id", id, "user_id", user.ID)
		return model.MuscleEntry{}, e.fail(model.ErrForbidden)
	}

	return entry, nil
}

func (e *Entries) mutateCached(id uuid.UUID, mutate func(model.MuscleEntry) model.MuscleEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.cache {
		if e.cache[i].ID == id {
			e.cache[i] = mutate(e.cache[i])
			return
		}
	}
}

func (e *Entries) replaceCache(entries []model.MuscleEntry) {
	e.mu.Lock()
	e.cache = slices.Clone(entries)
	e.mu.Unlock()
}

func (e *Entries) fail(err error) error {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()
	return err
}

func validateDraft(draft model.EntryDraft) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		return &model.ValidationError{Fields: fields}
	}

	return &model.ValidationError{Fields: map[string]string{"draft": err.Error()}}
}

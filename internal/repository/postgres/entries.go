package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avasiliev/muscletrack/internal/logger"
	"github.com/avasiliev/muscletrack/internal/model"
)

var _ model.EntryStore = (*EntryRepository)(nil)

// EntryRepository realizes the remote document store for muscle entries on
// top of PostgreSQL. Recovery history lives in a JSONB column so the
// log-recovery-day append stays a single atomic statement, and live
// subscriptions ride on LISTEN/NOTIFY fired by a row trigger.
type EntryRepository struct {
	db     *Connection
	logger *logger.Logger
}

func NewEntryRepository(db *Connection, logger *logger.Logger) *EntryRepository {
	return &EntryRepository{
		db:     db,
		logger: logger,
	}
}

const entryColumns = `id, owner_id, muscle_name, intensity, weight, sets, reps,
	recovery_time_days, notes, created_at_date, created_at_millis,
	recovery_end_millis, recovery_progress_days, recovery_history, last_workout, status`

// Create inserts the entry under a freshly assigned id and returns the
// stored row. The id is stable afterwards and never reused.
func (r *EntryRepository) Create(ctx context.Context, entry model.MuscleEntry) (model.MuscleEntry, error) {
	entry.ID = uuid.New()

	history, err := marshalHistory(entry.RecoveryHistory)
	if err != nil {
		return model.MuscleEntry{}, err
	}

	query := `
		INSERT INTO muscle_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.OwnerID, entry.MuscleName, string(entry.Intensity), entry.Weight,
		entry.Sets, entry.Reps, entry.RecoveryTimeDays, entry.Notes,
		entry.CreatedAt, entry.CreatedAtMillis, entry.RecoveryEndMillis,
		entry.RecoveryProgressDays, history, entry.LastWorkout, string(entry.Status),
	)
	if err != nil {
		return model.MuscleEntry{}, fmt.Errorf("failed to insert entry: %w", err)
	}

	return entry, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id uuid.UUID) (model.MuscleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM muscle_entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MuscleEntry{}, model.ErrNotFound
		}
		return model.MuscleEntry{}, fmt.Errorf("failed to get entry by id: %w", err)
	}

	return entry, nil
}

func (r *EntryRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.MuscleEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM muscle_entries
		WHERE owner_id = $1
		ORDER BY created_at_millis DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by owner: %w", err)
	}
	defer rows.Close()

	var entries []model.MuscleEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}

// Update applies the non-nil patch fields. A zero patch is a no-op.
func (r *EntryRepository) Update(ctx context.Context, id uuid.UUID, patch model.EntryPatch) error {
	if patch.IsZero() {
		return nil
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.MuscleName != nil {
		add("muscle_name", *patch.MuscleName)
	}
	if patch.Intensity != nil {
		add("intensity", string(*patch.Intensity))
	}
	if patch.Weight != nil {
		add("weight", *patch.Weight)
	}
	if patch.Sets != nil {
		add("sets", *patch.Sets)
	}
	if patch.Reps != nil {
		add("reps", *patch.Reps)
	}
	if patch.RecoveryTimeDays != nil {
		add("recovery_time_days", *patch.RecoveryTimeDays)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.RecoveryEndMillis != nil {
		add("recovery_end_millis", *patch.RecoveryEndMillis)
	}

	query := fmt.Sprintf("UPDATE muscle_entries SET %s WHERE id = $1", strings.Join(sets, ", "))

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM muscle_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// LogRecoveryDay appends one history item and increments the progress
// counter in a single statement; status is derived by the caller.
func (r *EntryRepository) LogRecoveryDay(ctx context.Context, id uuid.UUID, day model.RecoveryDay, status model.Status) error {
	item, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("failed to encode recovery day: %w", err)
	}

	query := `
		UPDATE muscle_entries
		SET recovery_history = recovery_history || $2::jsonb,
		    recovery_progress_days = recovery_progress_days + 1,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id, item, string(status))
	if err != nil {
		return fmt.Errorf("failed to log recovery day: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// StartCycle resets the recovery counters and timestamps while leaving the
// history column untouched.
func (r *EntryRepository) StartCycle(ctx context.Context, id uuid.UUID, reset model.CycleReset) error {
	query := `
		UPDATE muscle_entries
		SET recovery_progress_days = 0,
		    status = $2,
		    created_at_date = $3,
		    created_at_millis = $4,
		    recovery_end_millis = $5,
		    last_workout = $6,
		    updated_at = NOW()
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id,
		string(model.StatusRecovering), reset.CreatedAt, reset.CreatedAtMillis,
		reset.RecoveryEndMillis, reset.LastWorkout,
	)
	if err != nil {
		return fmt.Errorf("failed to start cycle: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func scanEntry(row pgx.Row) (model.MuscleEntry, error) {
	var (
		entry     model.MuscleEntry
		intensity string
		status    string
		history   []byte
	)
	err := row.Scan(
		&entry.ID, &entry.OwnerID, &entry.MuscleName, &intensity, &entry.Weight,
		&entry.Sets, &entry.Reps, &entry.RecoveryTimeDays, &entry.Notes,
		&entry.CreatedAt, &entry.CreatedAtMillis, &entry.RecoveryEndMillis,
		&entry.RecoveryProgressDays, &history, &entry.LastWorkout, &status,
	)
	if err != nil {
		return model.MuscleEntry{}, err
	}

	entry.Intensity = model.Intensity(intensity)
	entry.Status = model.Status(status)
	if err := json.Unmarshal(history, &entry.RecoveryHistory); err != nil {
		return model.MuscleEntry{}, fmt.Errorf("failed to decode recovery history: %w", err)
	}

	return entry, nil
}

func marshalHistory(history []model.RecoveryDay) ([]byte, error) {
	if history == nil {
		history = []model.RecoveryDay{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recovery history: %w", err)
	}
	return data, nil
}

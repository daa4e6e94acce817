package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avasiliev/muscletrack/internal/model"
)

var (
	_ model.AccountStore = (*UserRepository)(nil)
	_ model.ProfileStore = (*UserRepository)(nil)
)

// UserRepository persists provider accounts and their profile records.
type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	query := `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		account.ID, account.Email, account.DisplayName, account.PasswordHash,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

func (r *UserRepository) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	var account model.Account
	query := `SELECT id, email, display_name, password_hash, created_at, updated_at
			  FROM users WHERE email = $1`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&account.ID, &account.Email, &account.DisplayName, &account.PasswordHash,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *UserRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	var account model.Account
	query := `SELECT id, email, display_name, password_hash, created_at, updated_at
			  FROM users WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&account.ID, &account.Email, &account.DisplayName, &account.PasswordHash,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *UserRepository) UpdateAccountDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET display_name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateAccountPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CreateProfile(ctx context.Context, userID uuid.UUID, profile model.Profile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, name, email) VALUES ($1, $2, $3)`,
		userID, profile.Name, profile.Email)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	var profile model.Profile
	query := `SELECT name, email, created_at FROM profiles WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(&profile.Name, &profile.Email, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) error {
	if patch.Name == nil {
		return nil
	}

	cmd, err := r.db.Exec(ctx,
		`UPDATE profiles SET name = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, *patch.Name)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

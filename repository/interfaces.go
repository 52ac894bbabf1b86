package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/umape/trainerbase/domain"
)

// DBTX abstracts *sql.DB and *sql.Tx so repository methods work with both.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ProfileRepository provides access to the profiles table.
type ProfileRepository interface {
	// Insert creates a profile. Returns domain.ErrNameTaken if the name is
	// already present; uniqueness is enforced by the engine, not by a
	// prior check, so concurrent inserts of the same name cannot race.
	Insert(ctx context.Context, db DBTX, profile *domain.Profile) error

	// FindByID returns a profile by id, or nil if not found.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Profile, error)

	// FindByName returns a profile by its unique name, or nil if not found.
	FindByName(ctx context.Context, db DBTX, name string) (*domain.Profile, error)

	// FindCurrent returns the profile with the greatest last_played above
	// the logged-out sentinel, or nil if every profile is logged out.
	FindCurrent(ctx context.Context, db DBTX) (*domain.Profile, error)

	// ListAll returns all profiles, most recently played first.
	ListAll(ctx context.Context, db DBTX) ([]domain.Profile, error)

	// Count returns the number of profiles.
	Count(ctx context.Context, db DBTX) (int, error)

	// Update replaces the full row. The name column is not touched:
	// names are immutable once created.
	Update(ctx context.Context, db DBTX, profile *domain.Profile) error

	// TouchLastPlayed sets last_played for one profile.
	TouchLastPlayed(ctx context.Context, db DBTX, id uuid.UUID, ts int64) error

	// UpdatePasswordHash replaces the stored digest for one profile.
	UpdatePasswordHash(ctx context.Context, db DBTX, id uuid.UUID, hash string) error

	// AddCoins applies a coin delta with server-side arithmetic, clamped
	// at zero. Concurrent deltas on the same row never lose updates.
	AddCoins(ctx context.Context, db DBTX, id uuid.UUID, delta int64) error

	// IncrementGamesPlayed bumps games_played by one, atomically.
	IncrementGamesPlayed(ctx context.Context, db DBTX, id uuid.UUID) error

	// IncrementRacesWon bumps races_won by one, atomically.
	IncrementRacesWon(ctx context.Context, db DBTX, id uuid.UUID) error

	// LogoutAll resets last_played to the sentinel on every profile.
	LogoutAll(ctx context.Context, db DBTX) error

	// LogoutOthers resets last_played on every profile except one.
	LogoutOthers(ctx context.Context, db DBTX, exceptID uuid.UUID) error

	// DeleteByName removes a profile. Administrative/test capability;
	// the main flow never deletes.
	DeleteByName(ctx context.Context, db DBTX, name string) error
}

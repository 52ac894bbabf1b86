package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/umape/trainerbase/domain"
)

const profileColumns = `id, name, password_hash, avatar, trainer_level, language,
	total_coins, total_fans, games_played, races_won, created_at, last_played`

// SQLiteProfileRepository implements ProfileRepository over database/sql
// with the sqlite engine.
type SQLiteProfileRepository struct{}

// NewSQLiteProfileRepository creates a new SQLiteProfileRepository.
func NewSQLiteProfileRepository() *SQLiteProfileRepository {
	return &SQLiteProfileRepository{}
}

func (r *SQLiteProfileRepository) Insert(ctx context.Context, db DBTX, p *domain.Profile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PasswordHash, p.Avatar, p.TrainerLevel, p.Language,
		p.TotalCoins, p.TotalFans, p.GamesPlayed, p.RacesWon, p.CreatedAt, p.LastPlayed,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ErrNameTaken(p.Name)
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Profile, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (r *SQLiteProfileRepository) FindByName(ctx context.Context, db DBTX, name string) (*domain.Profile, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	return scanProfile(row)
}

func (r *SQLiteProfileRepository) FindCurrent(ctx context.Context, db DBTX) (*domain.Profile, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE last_played > 0
		ORDER BY last_played DESC LIMIT 1`)
	return scanProfile(row)
}

func (r *SQLiteProfileRepository) ListAll(ctx context.Context, db DBTX) ([]domain.Profile, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles ORDER BY last_played DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.PasswordHash, &p.Avatar, &p.TrainerLevel, &p.Language,
			&p.TotalCoins, &p.TotalFans, &p.GamesPlayed, &p.RacesWon, &p.CreatedAt, &p.LastPlayed,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (r *SQLiteProfileRepository) Count(ctx context.Context, db DBTX) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (r *SQLiteProfileRepository) Update(ctx context.Context, db DBTX, p *domain.Profile) error {
	res, err := db.ExecContext(ctx, `
		UPDATE profiles SET
			password_hash = ?, avatar = ?, trainer_level = ?, language = ?,
			total_coins = ?, total_fans = ?, games_played = ?, races_won = ?,
			last_played = ?
		WHERE id = ?`,
		p.PasswordHash, p.Avatar, p.TrainerLevel, p.Language,
		p.TotalCoins, p.TotalFans, p.GamesPlayed, p.RacesWon,
		p.LastPlayed, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res, p.ID.String())
}

func (r *SQLiteProfileRepository) TouchLastPlayed(ctx context.Context, db DBTX, id uuid.UUID, ts int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE profiles SET last_played = ? WHERE id = ?`, ts, id)
	if err != nil {
		return fmt.Errorf("touch last_played: %w", err)
	}
	return requireRow(res, id.String())
}

func (r *SQLiteProfileRepository) UpdatePasswordHash(ctx context.Context, db DBTX, id uuid.UUID, hash string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE profiles SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password_hash: %w", err)
	}
	return requireRow(res, id.String())
}

// AddCoins uses server-side arithmetic so concurrent deltas serialize in
// the engine; MAX clamps the balance at zero.
func (r *SQLiteProfileRepository) AddCoins(ctx context.Context, db DBTX, id uuid.UUID, delta int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE profiles SET total_coins = MAX(total_coins + ?, 0) WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add coins: %w", err)
	}
	return requireRow(res, id.String())
}

func (r *SQLiteProfileRepository) IncrementGamesPlayed(ctx context.Context, db DBTX, id uuid.UUID) error {
	res, err := db.ExecContext(ctx,
		`UPDATE profiles SET games_played = games_played + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment games_played: %w", err)
	}
	return requireRow(res, id.String())
}

func (r *SQLiteProfileRepository) IncrementRacesWon(ctx context.Context, db DBTX, id uuid.UUID) error {
	res, err := db.ExecContext(ctx,
		`UPDATE profiles SET races_won = races_won + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment races_won: %w", err)
	}
	return requireRow(res, id.String())
}

func (r *SQLiteProfileRepository) LogoutAll(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx, `UPDATE profiles SET last_played = 0`)
	if err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepository) LogoutOthers(ctx context.Context, db DBTX, exceptID uuid.UUID) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET last_played = 0 WHERE id != ?`, exceptID)
	if err != nil {
		return fmt.Errorf("logout others: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepository) DeleteByName(ctx context.Context, db DBTX, name string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func scanProfile(row *sql.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.PasswordHash, &p.Avatar, &p.TrainerLevel, &p.Language,
		&p.TotalCoins, &p.TotalFans, &p.GamesPlayed, &p.RacesWon, &p.CreatedAt, &p.LastPlayed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("profile", id)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/umape/trainerbase/domain"
)

// ProfileStore is the explicitly owned handle to the profiles table: one
// database connection, one repository, one change feed. Every mutation
// publishes on the feed only after the write has returned from the
// engine, so subscribers never observe a change before it is durable.
type ProfileStore struct {
	db   *sql.DB
	repo ProfileRepository
	feed *ChangeFeed
}

// NewProfileStore wires a store over an opened, migrated database handle.
func NewProfileStore(db *sql.DB, repo ProfileRepository) *ProfileStore {
	return &ProfileStore{db: db, repo: repo, feed: NewChangeFeed()}
}

// Watch subscribes to mutation notifications. The cancel function must be
// called when the subscriber goes away.
func (s *ProfileStore) Watch(buffer int) (<-chan Change, func()) {
	return s.feed.Subscribe(buffer)
}

func (s *ProfileStore) Insert(ctx context.Context, p *domain.Profile) error {
	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpInsert, ProfileID: p.ID})
	return nil
}

func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *ProfileStore) FindByName(ctx context.Context, name string) (*domain.Profile, error) {
	return s.repo.FindByName(ctx, s.db, name)
}

func (s *ProfileStore) FindCurrent(ctx context.Context) (*domain.Profile, error) {
	return s.repo.FindCurrent(ctx, s.db)
}

func (s *ProfileStore) ListAll(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.ListAll(ctx, s.db)
}

func (s *ProfileStore) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, s.db)
}

func (s *ProfileStore) Update(ctx context.Context, p *domain.Profile) error {
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: p.ID})
	return nil
}

func (s *ProfileStore) TouchLastPlayed(ctx context.Context, id uuid.UUID, ts int64) error {
	if err := s.repo.TouchLastPlayed(ctx, s.db, id, ts); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: id})
	return nil
}

func (s *ProfileStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if err := s.repo.UpdatePasswordHash(ctx, s.db, id, hash); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: id})
	return nil
}

func (s *ProfileStore) AddCoins(ctx context.Context, id uuid.UUID, delta int64) error {
	if err := s.repo.AddCoins(ctx, s.db, id, delta); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: id})
	return nil
}

func (s *ProfileStore) IncrementGamesPlayed(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.IncrementGamesPlayed(ctx, s.db, id); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: id})
	return nil
}

func (s *ProfileStore) IncrementRacesWon(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.IncrementRacesWon(ctx, s.db, id); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate, ProfileID: id})
	return nil
}

func (s *ProfileStore) LogoutAll(ctx context.Context) error {
	if err := s.repo.LogoutAll(ctx, s.db); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate})
	return nil
}

func (s *ProfileStore) LogoutOthers(ctx context.Context, exceptID uuid.UUID) error {
	if err := s.repo.LogoutOthers(ctx, s.db, exceptID); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpUpdate})
	return nil
}

func (s *ProfileStore) DeleteByName(ctx context.Context, name string) error {
	if err := s.repo.DeleteByName(ctx, s.db, name); err != nil {
		return err
	}
	s.feed.Publish(Change{Op: OpDelete})
	return nil
}

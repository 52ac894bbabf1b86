package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/umape/trainerbase/credential"
	"github.com/umape/trainerbase/domain"
	"github.com/umape/trainerbase/repository"
)

// AccountService encapsulates registration, login, password change and
// stat mutation over the profile store. All expected business failures
// come back as domain.AppError values; callers branch on the code.
type AccountService struct {
	store  *repository.ProfileStore
	policy credential.Policy
	now    func() int64
}

// NewAccountService creates a new AccountService.
func NewAccountService(store *repository.ProfileStore, policy credential.Policy) *AccountService {
	return &AccountService{
		store:  store,
		policy: policy,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Register creates a new trainer profile. The unique-name rule is enforced
// by the store's engine, so two concurrent registrations of the same name
// cannot both succeed; the single-row insert keeps the operation atomic.
func (s *AccountService) Register(ctx context.Context, name, password, language string) (*domain.Profile, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	hash, err := s.policy.Hash(password)
	if err != nil {
		return nil, domain.ErrStorage("hash password", err)
	}

	now := s.now()
	profile := &domain.Profile{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: hash,
		Avatar:       domain.DefaultAvatar,
		TrainerLevel: 1,
		Language:     domain.NormalizeLanguage(language),
		TotalCoins:   domain.SignupBonusCoins,
		CreatedAt:    now,
		LastPlayed:   now,
	}

	if err := s.store.Insert(ctx, profile); err != nil {
		var app *domain.AppError
		if errors.As(err, &app) {
			return nil, app
		}
		return nil, domain.ErrStorage("insert profile", err)
	}
	return profile, nil
}

// Login verifies credentials by name and, on success, touches last_played
// so the profile becomes the current session. The failure is the same
// whether the name is unknown or the password is wrong.
func (s *AccountService) Login(ctx context.Context, name, password string) (*domain.Profile, error) {
	profile, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, domain.ErrStorage("find profile", err)
	}
	if profile == nil || !s.policy.Verify(password, profile.PasswordHash) {
		return nil, domain.ErrBadCredentials()
	}

	ts := s.now()
	if err := s.store.TouchLastPlayed(ctx, profile.ID, ts); err != nil {
		return nil, wrapStore("touch last_played", err)
	}
	profile.LastPlayed = ts
	return profile, nil
}

// ChangePassword re-verifies the old password before replacing the digest.
func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return domain.ErrValidation(err.Error())
	}

	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.ErrStorage("find profile", err)
	}
	if profile == nil {
		return domain.ErrNotFound("profile", id.String())
	}
	if !s.policy.Verify(oldPassword, profile.PasswordHash) {
		return domain.ErrBadCredentials()
	}

	hash, err := s.policy.Hash(newPassword)
	if err != nil {
		return domain.ErrStorage("hash password", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, id, hash); err != nil {
		return wrapStore("update password", err)
	}
	return nil
}

// SwitchUser makes the target profile the current session by recency
// alone; nothing else is logged out.
func (s *AccountService) SwitchUser(ctx context.Context, id uuid.UUID) error {
	if err := s.store.TouchLastPlayed(ctx, id, s.now()); err != nil {
		return wrapStore("touch last_played", err)
	}
	return nil
}

// Logout resets every profile to the logged-out sentinel.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.store.LogoutAll(ctx); err != nil {
		return domain.ErrStorage("logout all", err)
	}
	return nil
}

// LogoutOthers keeps one session and resets the rest.
func (s *AccountService) LogoutOthers(ctx context.Context, exceptID uuid.UUID) error {
	if err := s.store.LogoutOthers(ctx, exceptID); err != nil {
		return domain.ErrStorage("logout others", err)
	}
	return nil
}

// AddCoins applies a coin delta. The store clamps the balance at zero and
// applies concurrent deltas without losing updates.
func (s *AccountService) AddCoins(ctx context.Context, id uuid.UUID, delta int64) error {
	if err := s.store.AddCoins(ctx, id, delta); err != nil {
		return wrapStore("add coins", err)
	}
	return nil
}

// IncrementGamesPlayed bumps the monotonic games counter.
func (s *AccountService) IncrementGamesPlayed(ctx context.Context, id uuid.UUID) error {
	if err := s.store.IncrementGamesPlayed(ctx, id); err != nil {
		return wrapStore("increment games_played", err)
	}
	return nil
}

// IncrementRacesWon bumps the monotonic wins counter.
func (s *AccountService) IncrementRacesWon(ctx context.Context, id uuid.UUID) error {
	if err := s.store.IncrementRacesWon(ctx, id); err != nil {
		return wrapStore("increment races_won", err)
	}
	return nil
}

// IsFirstTimeUser reports whether no profile exists yet, routing the UI
// to registration on first launch.
func (s *AccountService) IsFirstTimeUser(ctx context.Context) (bool, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return false, domain.ErrStorage("count profiles", err)
	}
	return n == 0, nil
}

// Profiles returns all profiles, most recently played first.
func (s *AccountService) Profiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrStorage("list profiles", err)
	}
	return profiles, nil
}

// DeleteProfile removes a profile by name. Administrative/test capability.
func (s *AccountService) DeleteProfile(ctx context.Context, name string) error {
	if err := s.store.DeleteByName(ctx, name); err != nil {
		return domain.ErrStorage("delete profile", err)
	}
	return nil
}

// wrapStore passes through domain errors (e.g. NOT_FOUND from a targeted
// mutation) and classifies the rest as storage failures.
func wrapStore(msg string, err error) error {
	var app *domain.AppError
	if errors.As(err, &app) {
		return app
	}
	return domain.ErrStorage(msg, err)
}

package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umape/trainerbase/credential"
	"github.com/umape/trainerbase/domain"
	"github.com/umape/trainerbase/infra"
	"github.com/umape/trainerbase/repository"
)

func newTestService(t *testing.T) *AccountService {
	t.Helper()

	cfg := &infra.Config{
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS: 5000,
	}
	db, err := infra.OpenSQLite(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, infra.RunMigrations(db, logger))

	store := repository.NewProfileStore(db, repository.NewSQLiteProfileRepository())
	svc := NewAccountService(store, credential.NewSHA256Policy())

	// Deterministic, strictly increasing clock.
	var ts int64 = 1_000_000
	svc.now = func() int64 {
		ts += 1000
		return ts
	}
	return svc
}

func TestRegister_Defaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Ash", p.Name)
	assert.Equal(t, int64(1000), p.TotalCoins)
	assert.Equal(t, 1, p.TrainerLevel)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, domain.DefaultAvatar, p.Avatar)
	assert.Zero(t, p.GamesPlayed)
	assert.Zero(t, p.RacesWon)
	assert.Zero(t, p.TotalFans)
	assert.Equal(t, p.CreatedAt, p.LastPlayed)
	assert.True(t, p.LoggedIn())

	assert.True(t, credential.NewSHA256Policy().Verify("hunter123", p.PasswordHash))
	assert.NotEqual(t, "hunter123", p.PasswordHash)
}

func TestRegister_NormalizesUnknownLanguage(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.Register(context.Background(), "Ash", "hunter123", "klingon")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLanguage, p.Language)
}

func TestRegister_NameTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ash", "other", "es")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNameTaken, domain.CodeOf(err))

	// The row count for that name stays one.
	profiles, err := svc.Profiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		trainer  string
		password string
	}{
		{"empty name", "", "hunter123"},
		{"empty password", "Ash", ""},
		{"padded name", " Ash", "hunter123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.trainer, tt.password, "en")
			require.Error(t, err)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		})
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	logged, err := svc.Login(ctx, "Ash", "hunter123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, logged.ID)
	assert.Greater(t, logged.LastPlayed, registered.LastPlayed)
}

func TestLogin_FailureIsUniform(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "Ash", "wrong")
	require.Error(t, wrongPassword)

	_, unknownName := svc.Login(ctx, "Gary", "hunter123")
	require.Error(t, unknownName)

	// The API surface must not leak which case occurred.
	assert.Equal(t, domain.CodeBadCredentials, domain.CodeOf(wrongPassword))
	assert.Equal(t, domain.CodeBadCredentials, domain.CodeOf(unknownName))
	assert.Equal(t, wrongPassword.Error(), unknownName.Error())
}

func TestLogin_LastPlayedStrictlyIncreases(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	first, err := svc.Login(ctx, "Ash", "hunter123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "Ash", "hunter123")
	require.NoError(t, err)

	assert.Greater(t, second.LastPlayed, first.LastPlayed)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	// Wrong old password is rejected.
	err = svc.ChangePassword(ctx, p.ID, "wrong", "newpass")
	require.Error(t, err)
	assert.Equal(t, domain.CodeBadCredentials, domain.CodeOf(err))

	require.NoError(t, svc.ChangePassword(ctx, p.ID, "hunter123", "newpass"))

	_, err = svc.Login(ctx, "Ash", "hunter123")
	require.Error(t, err)
	assert.Equal(t, domain.CodeBadCredentials, domain.CodeOf(err))

	_, err = svc.Login(ctx, "Ash", "newpass")
	require.NoError(t, err)
}

func TestChangePassword_UnknownProfile(t *testing.T) {
	svc := newTestService(t)

	err := svc.ChangePassword(context.Background(), uuid.New(), "old", "new")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestSwitchUser_MakesTargetCurrent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ash, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)
	misty, err := svc.Register(ctx, "Misty", "starmie", "en")
	require.NoError(t, err)

	// Misty registered last, so she is current; switch back to Ash.
	require.NoError(t, svc.SwitchUser(ctx, ash.ID))

	current, err := svc.store.FindCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, ash.ID, current.ID)

	// Switching does not log the others out.
	got, err := svc.store.FindByID(ctx, misty.ID)
	require.NoError(t, err)
	assert.True(t, got.LoggedIn())
}

func TestLogout_ClearsCurrent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	current, err := svc.store.FindCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestStatMutators(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	require.NoError(t, svc.AddCoins(ctx, p.ID, 250))
	require.NoError(t, svc.IncrementGamesPlayed(ctx, p.ID))
	require.NoError(t, svc.IncrementRacesWon(ctx, p.ID))

	got, err := svc.store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), got.TotalCoins)
	assert.Equal(t, int64(1), got.GamesPlayed)
	assert.Equal(t, int64(1), got.RacesWon)

	// Spending more than the balance clamps at zero, never negative.
	require.NoError(t, svc.AddCoins(ctx, p.ID, -99999))
	got, err = svc.store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TotalCoins)
}

func TestStatMutators_UnknownProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.AddCoins(ctx, uuid.New(), 10)
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestIsFirstTimeUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.IsFirstTimeUser(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	_, err = svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	first, err = svc.IsFirstTimeUser(ctx)
	require.NoError(t, err)
	assert.False(t, first)
}

func TestDeleteProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(ctx, "Ash"))

	profiles, err := svc.Profiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

// The full walkthrough from the acceptance notes.
func TestAccountLifecycleScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ash, err := svc.Register(ctx, "Ash", "hunter123", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ash.TotalCoins)

	_, err = svc.Register(ctx, "Ash", "other", "es")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNameTaken, domain.CodeOf(err))

	_, err = svc.Login(ctx, "Ash", "wrong")
	require.Error(t, err)

	logged, err := svc.Login(ctx, "Ash", "hunter123")
	require.NoError(t, err)
	assert.Greater(t, logged.LastPlayed, ash.LastPlayed)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.IncrementRacesWon(ctx, ash.ID))
	}

	got, err := svc.store.FindByID(ctx, ash.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.RacesWon)
}

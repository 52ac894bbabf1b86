// Package prefs is the small on-device preference blob used before any
// profile exists: a cached display name, avatar and language plus the
// first-run flag. It is not authoritative once profiles exist.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/viper"
	"github.com/umape/trainerbase/domain"
)

const (
	keyUserName     = "user_name"
	keyUserAvatar   = "user_avatar"
	keyTrainerLevel = "trainer_level"
	keyLanguage     = "language"
	keyIsFirstTime  = "is_first_time"
)

// Manager reads and writes the preference file.
type Manager struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewManager loads the blob at path, falling back to defaults when the
// file does not exist yet.
func NewManager(path string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault(keyUserName, "")
	v.SetDefault(keyUserAvatar, "")
	v.SetDefault(keyTrainerLevel, 1)
	v.SetDefault(keyLanguage, domain.DefaultLanguage)
	v.SetDefault(keyIsFirstTime, true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	}
	return &Manager{v: v, path: path}, nil
}

// IsFirstTime reports whether the device has never saved user data.
func (m *Manager) IsFirstTime() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.GetBool(keyIsFirstTime)
}

// UserName returns the cached display name.
func (m *Manager) UserName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.GetString(keyUserName)
}

// UserAvatar returns the cached avatar token.
func (m *Manager) UserAvatar() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.GetString(keyUserAvatar)
}

// Language returns the cached UI language.
func (m *Manager) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.GetString(keyLanguage)
}

// SaveUserData caches the signup data and clears the first-run flag in a
// single write.
func (m *Manager) SaveUserData(name, avatar, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.Set(keyUserName, name)
	m.v.Set(keyUserAvatar, avatar)
	m.v.Set(keyLanguage, domain.NormalizeLanguage(language))
	m.v.Set(keyTrainerLevel, 1)
	m.v.Set(keyIsFirstTime, false)

	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

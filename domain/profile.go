package domain

import (
	"github.com/google/uuid"
)

// Defaults applied at registration. The coin bonus matches the value the
// v2 schema migration backfills for pre-existing rows.
const (
	SignupBonusCoins = 1000
	DefaultAvatar    = "default_avatar"
	DefaultLanguage  = "es"

	// LoggedOutSentinel is the last_played value meaning "not the current
	// session". Any positive value is a unix-millisecond activity timestamp.
	LoggedOutSentinel int64 = 0
)

// Profile represents a profiles row: one trainer account on this device.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	TrainerLevel int       `json:"trainer_level"`
	Language     string    `json:"language"`
	TotalCoins   int64     `json:"total_coins"`
	TotalFans    int64     `json:"total_fans"`
	GamesPlayed  int64     `json:"games_played"`
	RacesWon     int64     `json:"races_won"`
	CreatedAt    int64     `json:"created_at"`
	LastPlayed   int64     `json:"last_played"`
}

// LoggedIn reports whether this profile holds an active session.
// last_played doubles as the session flag: the sentinel 0 means logged out.
func (p *Profile) LoggedIn() bool {
	return p.LastPlayed > LoggedOutSentinel
}

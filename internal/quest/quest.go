// Package quest defines the core domain of the invite-gated game: player
// records, the mini-game catalog with its judge functions, level progression,
// scoring, and the in-memory session manager. It performs no I/O.
package quest

import (
	"errors"
	"time"
)

const (
	// MaxLives is the number of attempts a player gets per game slot.
	MaxLives = 2
	// GamesPerLevel is the number of games that must be won to clear a level.
	GamesPerLevel = 2
	// FinalLevel is the last playable level.
	FinalLevel = 3
	// CompletedLevel is the terminal state reached after clearing FinalLevel.
	CompletedLevel = 4
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrInvalidNumber = errors.New("input is not a valid number")
)

// Player is the durable progress record for one user.
type Player struct {
	ID          int64     `json:"userId"`
	Username    string    `json:"username,omitempty"`
	Level       int       `json:"level"`
	Lives       int       `json:"lives"`
	CurrentGame int       `json:"currentGame"`
	Invites     int       `json:"invites"`
	StartedAt   time.Time `json:"startedAt"`
	Failures    int       `json:"failures"`
	Score       int       `json:"score"`
}

// NewPlayer returns the record for a freshly registered user.
func NewPlayer(id int64, username string, now time.Time) Player {
	return Player{
		ID:        id,
		Username:  username,
		Lives:     MaxLives,
		StartedAt: now.UTC(),
	}
}

// Completed reports whether the player has finished the whole quest.
func (p Player) Completed() bool { return p.Level >= CompletedLevel }

// Playing reports whether the player has unlocked at least one level and has
// not yet finished.
func (p Player) Playing() bool { return p.Level >= 1 && p.Level <= FinalLevel }

package models

import (
	"time"
)

// DefaultBracketSize is used when a tournament is created without one.
const DefaultBracketSize = 32

// Tournament is a single-elimination bracket.
type Tournament struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Round       Round  `json:"round" gorm:"type:varchar(32);not null;index"`
	BracketSize int    `json:"bracket_size" gorm:"not null;default:32"`
	// WinnerID is filled once the final has been played out.
	WinnerID *string `json:"winner_id,omitempty" gorm:"type:varchar(36)"`
	// Version is bumped on every round transition; updates are conditional on it.
	Version int `json:"version" gorm:"not null;default:0"`

	Roster []TournamentEntry `json:"roster,omitempty" gorm:"foreignKey:TournamentID"`

	Timestamps
}

// RosterFrozen reports whether registration has closed.
func (t Tournament) RosterFrozen() bool {
	return !t.Round.IsPreBracket()
}

// PlayerIDs returns the roster ids in join order.
func (t Tournament) PlayerIDs() []string {
	ids := make([]string, 0, len(t.Roster))
	for _, e := range t.Roster {
		ids = append(ids, e.PlayerID)
	}
	return ids
}

// TournamentEntry registers one competitor in a tournament.
type TournamentEntry struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TournamentID string    `json:"tournament_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_entry_player"`
	PlayerID     string    `json:"player_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_entry_player"`
	JoinedAt     time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

package models

import "time"

// Match is one game between two players inside a tournament round.
type Match struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TournamentID string `json:"tournament_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_match_slot"`
	Round        Round  `json:"round" gorm:"type:varchar(32);not null;uniqueIndex:idx_match_slot"`
	Position     int    `json:"position" gorm:"not null;uniqueIndex:idx_match_slot"`

	Player1ID    string `json:"player1_id" gorm:"type:varchar(36);not null;index"`
	Player2ID    string `json:"player2_id" gorm:"type:varchar(36);not null;index"`
	Player1Score int    `json:"player1_score" gorm:"not null;default:0"`
	Player2Score int    `json:"player2_score" gorm:"not null;default:0"`

	WinnerID  *string    `json:"winner_id,omitempty" gorm:"type:varchar(36)"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	Timestamps
}

func (m Match) Decided() bool { return m.WinnerID != nil }

func (m Match) HasParticipant(playerID string) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

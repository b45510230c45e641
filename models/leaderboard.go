package models

import "time"

// LeaderboardEntry is one row of a persisted leaderboard snapshot.
type LeaderboardEntry struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SnapshotID string    `json:"snapshot_id" gorm:"type:varchar(36);not null;index"`
	PlayerID   string    `json:"player_id" gorm:"type:varchar(36);not null;index"`
	Name       string    `json:"name"`
	Rating     int       `json:"rating"`
	Rank       int       `json:"rank" gorm:"index"`
	Tier       int       `json:"tier"` // 0 = not tiered
	CapturedAt time.Time `json:"captured_at" gorm:"index"`
}

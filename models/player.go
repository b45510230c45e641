// models/player.go
package models

const (
	RolePlayer    = "player"
	RoleOrganiser = "organiser"
)

// DefaultRating is the starting rating of every competitor.
const DefaultRating = 1200

// Player is a registered user of the platform. Organisers carry no rating and
// never appear on the leaderboard.
type Player struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string `json:"name" gorm:"not null;index"`
	Role       string `json:"role" gorm:"type:varchar(16);not null;default:'player'"`
	Rating     *int   `json:"rating,omitempty" gorm:"index"`
	Experience int    `json:"experience" gorm:"not null;default:0"` // completed matches
	Wins       int    `json:"wins" gorm:"not null;default:0"`

	// Tournaments counts brackets the player started; TournamentWins the ones they won.
	Tournaments    int `json:"tournaments" gorm:"not null;default:0"`
	TournamentWins int `json:"tournament_wins" gorm:"not null;default:0"`

	Timestamps
}

func (p Player) IsRated() bool { return p.Rating != nil }

func (p Player) RatingOrDefault() int {
	if p.Rating == nil {
		return DefaultRating
	}
	return *p.Rating
}

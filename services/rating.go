package services

import (
	"fmt"
	"math"
	"strings"

	"cuemaster/models"
)

// Result is the actual score of one side of a match.
type Result float64

const (
	Loss Result = 0
	Win  Result = 1
)

// ParseResult accepts "win"/"loss" (or "1"/"0"). Draws are rejected.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "w", "1":
		return Win, nil
	case "loss", "l", "0":
		return Loss, nil
	case "draw", "d", "0.5", "tie":
		return Loss, ErrDrawUnsupported
	}
	return Loss, fmt.Errorf("%w: unknown result %q", ErrInvalidInput, s)
}

// ExpectedScore is the probability that a player rated a beats one rated b.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// KFactor shrinks as the rating climbs; new players get an experience bonus.
func KFactor(rating, experience int) int {
	var base int
	switch {
	case rating < 1400:
		base = 40
	case rating < 2000:
		base = 32
	default:
		base = 24
	}
	switch {
	case experience < 20:
		return base + 10
	case experience < 50:
		return base + 5
	default:
		return base
	}
}

func ImportanceMultiplier(round models.Round) float64 {
	switch round {
	case models.RoundOf16:
		return 1.1
	case models.RoundQuarterFinals:
		return 1.2
	case models.RoundSemiFinal:
		return 1.3
	case models.RoundFinal:
		return 1.5
	default:
		return 1.0
	}
}

func NewRating(rating int, expected float64, result Result, round models.Round, experience int) int {
	k := float64(KFactor(rating, experience)) * ImportanceMultiplier(round)
	return int(math.Round(float64(rating) + k*(float64(result)-expected)))
}

// PlayerRatingChange is the post-match state of one participant.
type PlayerRatingChange struct {
	PlayerID   string  `json:"player_id"`
	OldRating  int     `json:"old_rating"`
	NewRating  int     `json:"new_rating"`
	Expected   float64 `json:"expected"`
	Experience int     `json:"experience"`
	Wins       int     `json:"wins"`
	Won        bool    `json:"won"`
}

func (c PlayerRatingChange) Delta() int { return c.NewRating - c.OldRating }

// RatingChange holds both sides of a rated match, in participant order.
type RatingChange struct {
	Round   models.Round       `json:"round"`
	Player1 PlayerRatingChange `json:"player1"`
	Player2 PlayerRatingChange `json:"player2"`
}

// RateMatch computes the rating outcome of a decided match. Nothing is written;
// callers apply both sides in one transaction.
func RateMatch(p1, p2 models.Player, winnerID string, round models.Round) (RatingChange, error) {
	if p1.ID == p2.ID {
		return RatingChange{}, fmt.Errorf("%w: participants must be distinct", ErrInvalidInput)
	}
	if winnerID != p1.ID && winnerID != p2.ID {
		return RatingChange{}, fmt.Errorf("%w: %s", ErrInvalidWinner, winnerID)
	}
	if !p1.IsRated() || !p2.IsRated() {
		return RatingChange{}, ErrNotCompetitor
	}

	r1, r2 := *p1.Rating, *p2.Rating
	e1 := ExpectedScore(r1, r2)
	e2 := ExpectedScore(r2, r1)

	side := func(p models.Player, rating int, expected float64) PlayerRatingChange {
		won := p.ID == winnerID
		result := Loss
		wins := p.Wins
		if won {
			result = Win
			wins++
		}
		return PlayerRatingChange{
			PlayerID:   p.ID,
			OldRating:  rating,
			NewRating:  NewRating(rating, expected, result, round, p.Experience),
			Expected:   expected,
			Experience: p.Experience + 1,
			Wins:       wins,
			Won:        won,
		}
	}

	return RatingChange{
		Round:   round,
		Player1: side(p1, r1, e1),
		Player2: side(p2, r2, e2),
	}, nil
}

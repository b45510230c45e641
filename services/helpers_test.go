package services

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"cuemaster/models"
)

func ratedPlayer(id string, rating int) models.Player {
	return models.Player{ID: id, Name: id, Role: models.RolePlayer, Rating: &rating}
}

// fakeRoster builds n rated players with deterministic names and ratings.
func fakeRoster(n int, seed uint64) []models.Player {
	f := gofakeit.New(seed)
	out := make([]models.Player, n)
	for i := range out {
		rating := f.IntRange(900, 2400)
		out[i] = models.Player{
			ID:         fmt.Sprintf("p%02d", i),
			Name:       f.Name(),
			Role:       models.RolePlayer,
			Rating:     &rating,
			Experience: f.IntRange(0, 80),
		}
	}
	return out
}

func decided(t models.Tournament, round models.Round, pos int, p1, p2, winner string) models.Match {
	m := models.Match{
		ID:           fmt.Sprintf("%s-%s-%d", t.ID, round, pos),
		TournamentID: t.ID,
		Round:        round,
		Position:     pos,
		Player1ID:    p1,
		Player2ID:    p2,
	}
	if winner != "" {
		m.WinnerID = &winner
	}
	return m
}

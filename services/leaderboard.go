package services

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"cuemaster/models"
)

// RankedPlayer is a leaderboard row.
type RankedPlayer struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Wins   int    `json:"wins"`
	Played int    `json:"played"`
}

// RankPlayers orders rated players by descending rating and assigns standard
// competition ranks (1, 2, 2, 4). Unrated players are left out.
func RankPlayers(players []models.Player) []RankedPlayer {
	rated := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p.IsRated() {
			rated = append(rated, p)
		}
	}

	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(rated, func(i, j int) bool {
		ri, rj := *rated[i].Rating, *rated[j].Rating
		if ri != rj {
			return ri > rj
		}
		if c := col.CompareString(rated[i].Name, rated[j].Name); c != 0 {
			return c < 0
		}
		return rated[i].ID < rated[j].ID
	})

	out := make([]RankedPlayer, len(rated))
	for i, p := range rated {
		rank := i + 1
		if i > 0 && *p.Rating == out[i-1].Rating {
			rank = out[i-1].Rank
		}
		out[i] = RankedPlayer{
			Rank:   rank,
			ID:     p.ID,
			Name:   p.Name,
			Rating: *p.Rating,
			Wins:   p.Wins,
			Played: p.Experience,
		}
	}
	return out
}

package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"cuemaster/models"
)

const (
	DefaultThreshold = 100
	minThreshold     = 50
	maxThreshold     = 200
)

// Pairing is one proposed game. Position is the order inside the batch.
type Pairing struct {
	Position int           `json:"position"`
	Player1  models.Player `json:"player1"`
	Player2  models.Player `json:"player2"`
}

// RatingGap is the absolute rating difference between the two players.
func (p Pairing) RatingGap() int {
	gap := p.Player1.RatingOrDefault() - p.Player2.RatingOrDefault()
	if gap < 0 {
		return -gap
	}
	return gap
}

// sortByRating returns a copy ordered by ascending rating, ties by id.
func sortByRating(players []models.Player) []models.Player {
	sorted := append([]models.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].RatingOrDefault(), sorted[j].RatingOrDefault()
		if ri != rj {
			return ri < rj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// SeedingPairs pairs neighbours of the rating order: 0-1, 2-3, ...
func SeedingPairs(players []models.Player) ([]Pairing, error) {
	if len(players)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddPopulation, len(players))
	}
	sorted := sortByRating(players)
	pairs := make([]Pairing, 0, len(sorted)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		pairs = append(pairs, Pairing{
			Position: i / 2,
			Player1:  sorted[i],
			Player2:  sorted[i+1],
		})
	}
	return pairs, nil
}

// AdaptiveThreshold derives the pairing tolerance from the spread of ratings.
func AdaptiveThreshold(ratings []int) int {
	if len(ratings) == 0 {
		return DefaultThreshold
	}
	sd, err := stats.StandardDeviationPopulation(stats.LoadRawData(ratings))
	if err != nil {
		return DefaultThreshold
	}
	threshold := int(math.Round(sd))
	if len(ratings) < 10 && threshold < minThreshold {
		threshold = minThreshold
	}
	if len(ratings) > 100 && threshold > maxThreshold {
		threshold = maxThreshold
	}
	return max(threshold, minThreshold)
}

// AdaptivePairs walks the rating order once and pairs neighbours whose gap is
// within threshold. A player that cannot pair with the next one is left over;
// it is never retried against a farther candidate.
func AdaptivePairs(players []models.Player, threshold int) (pairs []Pairing, unmatched []models.Player) {
	sorted := sortByRating(players)
	i := 0
	for i < len(sorted) {
		if i+1 < len(sorted) {
			a, b := sorted[i], sorted[i+1]
			gap := a.RatingOrDefault() - b.RatingOrDefault()
			if gap < 0 {
				gap = -gap
			}
			if gap <= threshold {
				pairs = append(pairs, Pairing{Position: len(pairs), Player1: a, Player2: b})
				i += 2
				continue
			}
		}
		unmatched = append(unmatched, sorted[i])
		i++
	}
	return pairs, unmatched
}

func playerRatings(players []models.Player) []int {
	out := make([]int, 0, len(players))
	for _, p := range players {
		out = append(out, p.RatingOrDefault())
	}
	return out
}

// TierPairings is the adaptive pairing of a single skill tier.
type TierPairings struct {
	Tier      int             `json:"tier"`
	Centroid  float64         `json:"centroid"`
	Pairs     []Pairing       `json:"pairs"`
	Unmatched []models.Player `json:"unmatched"`
}

// TieredPairs clusters the pool into k skill tiers and pairs inside each
// tier only. Positions restart at zero per tier.
func TieredPairs(players []models.Player, k, threshold int, rng Rand) []TierPairings {
	tiers := ClusterPlayers(players, k, rng)
	out := make([]TierPairings, 0, len(tiers))
	for _, t := range tiers {
		pairs, unmatched := AdaptivePairs(t.Players, threshold)
		out = append(out, TierPairings{
			Tier:      t.Tier,
			Centroid:  t.Centroid,
			Pairs:     pairs,
			Unmatched: unmatched,
		})
	}
	return out
}

package services

import (
	"math"
	"math/rand/v2"
	"sort"

	"cuemaster/models"
)

const maxClusterIterations = 100

// Rand is the randomness the clusterer needs; *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ClusterResult is the outcome of a k-means run. Assignments[i] is the
// centroid index of input i.
type ClusterResult struct {
	Centroids   []float64
	Assignments []int
	Iterations  int
	Converged   bool
}

// Groups returns the input indices of each cluster, indexed like Centroids.
func (r ClusterResult) Groups() [][]int {
	groups := make([][]int, len(r.Centroids))
	for i, c := range r.Assignments {
		groups[c] = append(groups[c], i)
	}
	return groups
}

// Cluster runs 1-D Lloyd's k-means over ratings. k is capped at the number of
// ratings; an empty input or non-positive k yields no clusters.
func Cluster(ratings []float64, k int, rng Rand) ClusterResult {
	n := len(ratings)
	if n == 0 || k <= 0 {
		return ClusterResult{}
	}
	if k > n {
		k = n
	}
	if rng == nil {
		rng = globalRand{}
	}

	// partial Fisher-Yates: k indices without replacement
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	centroids := make([]float64, k)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		centroids[i] = ratings[idx[i]]
	}

	res := ClusterResult{Assignments: make([]int, n)}
	sums := make([]float64, k)
	counts := make([]int, k)
	for res.Iterations < maxClusterIterations {
		res.Iterations++
		assign(ratings, centroids, res.Assignments)

		clear(sums)
		clear(counts)
		for i, c := range res.Assignments {
			sums[c] += ratings[i]
			counts[c]++
		}

		next := make([]float64, k)
		for c := range next {
			if counts[c] == 0 {
				next[c] = ratings[rng.IntN(n)]
				continue
			}
			next[c] = sums[c] / float64(counts[c])
		}

		same := equalCentroids(centroids, next)
		centroids = next
		if same {
			res.Converged = true
			break
		}
	}

	assign(ratings, centroids, res.Assignments)
	res.Centroids = centroids
	return res
}

// assign maps each rating to its nearest centroid; ties go to the lowest index.
func assign(ratings, centroids []float64, out []int) {
	for i, r := range ratings {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := math.Abs(r - centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		out[i] = best
	}
}

func equalCentroids(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SkillTier is one group of similarly rated players. Tier 1 is the lowest.
type SkillTier struct {
	Tier     int             `json:"tier"`
	Centroid float64         `json:"centroid"`
	Players  []models.Player `json:"players"`
}

// ClusterPlayers groups rated players into at most k tiers ordered by
// ascending centroid. Unrated players are ignored.
func ClusterPlayers(players []models.Player, k int, rng Rand) []SkillTier {
	rated := make([]models.Player, 0, len(players))
	ratings := make([]float64, 0, len(players))
	for _, p := range players {
		if !p.IsRated() {
			continue
		}
		rated = append(rated, p)
		ratings = append(ratings, float64(*p.Rating))
	}

	res := Cluster(ratings, k, rng)
	var tiers []SkillTier
	for c, members := range res.Groups() {
		if len(members) == 0 {
			continue
		}
		tier := SkillTier{Centroid: res.Centroids[c]}
		for _, i := range members {
			tier.Players = append(tier.Players, rated[i])
		}
		tiers = append(tiers, tier)
	}

	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Centroid < tiers[j].Centroid })
	for i := range tiers {
		tiers[i].Tier = i + 1
	}
	return tiers
}

package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuemaster/models"
)

type idPair struct{ A, B string }

func pairIDs(pairs []Pairing) []idPair {
	out := make([]idPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, idPair{p.Player1.ID, p.Player2.ID})
	}
	return out
}

func TestSeedingPairsAdjacentByRating(t *testing.T) {
	players := []models.Player{
		ratedPlayer("d", 1800),
		ratedPlayer("a", 1100),
		ratedPlayer("c", 1500),
		ratedPlayer("b", 1200),
	}
	pairs, err := SeedingPairs(players)
	require.NoError(t, err)

	want := []idPair{{"a", "b"}, {"c", "d"}}
	if diff := cmp.Diff(want, pairIDs(pairs)); diff != "" {
		t.Errorf("pairings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, pairs[0].Position)
	assert.Equal(t, 1, pairs[1].Position)
	assert.Equal(t, 100, pairs[0].RatingGap())
}

func TestSeedingPairsTiesBrokenByID(t *testing.T) {
	players := []models.Player{
		ratedPlayer("z", 1200),
		ratedPlayer("m", 1200),
		ratedPlayer("a", 1200),
		ratedPlayer("k", 1200),
	}
	pairs, err := SeedingPairs(players)
	require.NoError(t, err)
	if diff := cmp.Diff([]idPair{{"a", "k"}, {"m", "z"}}, pairIDs(pairs)); diff != "" {
		t.Errorf("pairings mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedingPairsOddPopulation(t *testing.T) {
	_, err := SeedingPairs(fakeRoster(5, 1))
	require.ErrorIs(t, err, ErrOddPopulation)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSeedingPairsDoesNotReorderInput(t *testing.T) {
	roster := fakeRoster(8, 2)
	before := ids(roster)
	_, err := SeedingPairs(roster)
	require.NoError(t, err)
	assert.Equal(t, before, ids(roster))
}

func TestAdaptiveThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, AdaptiveThreshold(nil))
	// tiny spread floors at 50
	assert.Equal(t, 50, AdaptiveThreshold([]int{1200, 1205, 1210}))
	// population std-dev of {1000, 1400} is 200
	assert.Equal(t, 200, AdaptiveThreshold([]int{1000, 1400}))

	wide := make([]int, 0, 120)
	for i := 0; i < 120; i++ {
		if i%2 == 0 {
			wide = append(wide, 500)
		} else {
			wide = append(wide, 2500)
		}
	}
	assert.Equal(t, 200, AdaptiveThreshold(wide))

	// mid-sized pool keeps the raw value above the floor
	mid := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			mid = append(mid, 1000)
		} else {
			mid = append(mid, 1600)
		}
	}
	assert.Equal(t, 300, AdaptiveThreshold(mid))

	// mid-sized pool with a tiny spread still floors at 50
	flat := make([]int, 20)
	for i := range flat {
		flat[i] = 1500
	}
	assert.Equal(t, 50, AdaptiveThreshold(flat))
}

func TestAdaptivePairsLeavesDistantPlayerUnmatched(t *testing.T) {
	players := []models.Player{
		ratedPlayer("p3", 1600),
		ratedPlayer("p1", 1200),
		ratedPlayer("p2", 1210),
	}
	pairs, unmatched := AdaptivePairs(players, 50)

	if diff := cmp.Diff([]idPair{{"p1", "p2"}}, pairIDs(pairs)); diff != "" {
		t.Errorf("pairings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"p3"}, ids(unmatched))
}

func TestAdaptivePairsIsGreedySinglePass(t *testing.T) {
	// 1000 cannot reach 1100, so it is dropped; 1100 then pairs with 1120
	// and 1300 is left over even though 1120 would have been in range.
	players := []models.Player{
		ratedPlayer("a", 1000),
		ratedPlayer("b", 1100),
		ratedPlayer("c", 1120),
		ratedPlayer("d", 1300),
	}
	pairs, unmatched := AdaptivePairs(players, 50)
	if diff := cmp.Diff([]idPair{{"b", "c"}}, pairIDs(pairs)); diff != "" {
		t.Errorf("pairings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a", "d"}, ids(unmatched))
}

func TestAdaptivePairsBoundaryIsInclusive(t *testing.T) {
	pairs, unmatched := AdaptivePairs([]models.Player{ratedPlayer("a", 1200), ratedPlayer("b", 1250)}, 50)
	assert.Len(t, pairs, 1)
	assert.Empty(t, unmatched)
}

func TestTieredPairsStayInsideTier(t *testing.T) {
	players := []models.Player{
		ratedPlayer("lo1", 1000),
		ratedPlayer("lo2", 1010),
		ratedPlayer("lo3", 1030),
		ratedPlayer("hi1", 2000),
		ratedPlayer("hi2", 2020),
	}
	tiers := TieredPairs(players, 2, 100, seeded(9))
	require.Len(t, tiers, 2)

	assert.Equal(t, []idPair{{"lo1", "lo2"}}, pairIDs(tiers[0].Pairs))
	assert.Equal(t, []string{"lo3"}, ids(tiers[0].Unmatched))
	assert.Equal(t, []idPair{{"hi1", "hi2"}}, pairIDs(tiers[1].Pairs))
	assert.Empty(t, tiers[1].Unmatched)
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTransitions(t *testing.T) {
	legal := [][2]Round{
		{RoundUpcoming, RoundOngoing},
		{RoundOngoing, RoundOf32},
		{RoundOngoing, RoundQuarterFinals},
		{RoundOf32, RoundOf16},
		{RoundOf16, RoundQuarterFinals},
		{RoundQuarterFinals, RoundSemiFinal},
		{RoundSemiFinal, RoundFinal},
		{RoundFinal, RoundCompleted},
		{RoundOf16, RoundCancelled},
	}
	for _, tr := range legal {
		next, err := tr[0].TransitionTo(tr[1])
		require.NoError(t, err, "%s -> %s", tr[0], tr[1])
		assert.Equal(t, tr[1], next)
	}

	illegal := [][2]Round{
		{RoundFinal, RoundOf32},
		{RoundUpcoming, RoundOf32},
		{RoundOf32, RoundQuarterFinals},
		{RoundCompleted, RoundCancelled},
		{RoundCancelled, RoundOngoing},
		{RoundSemiFinal, RoundSemiFinal},
	}
	for _, tr := range illegal {
		cur, err := tr[0].TransitionTo(tr[1])
		require.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", tr[0], tr[1])
		assert.Equal(t, tr[0], cur)
	}
}

func TestRoundOrdering(t *testing.T) {
	next, ok := RoundOf32.Next()
	require.True(t, ok)
	assert.Equal(t, RoundOf16, next)

	next, ok = RoundFinal.Next()
	require.True(t, ok)
	assert.Equal(t, RoundCompleted, next)

	_, ok = RoundOngoing.Next()
	assert.False(t, ok)

	prev, ok := RoundFinal.Previous()
	require.True(t, ok)
	assert.Equal(t, RoundSemiFinal, prev)
	_, ok = RoundOf32.Previous()
	assert.False(t, ok)

	assert.Equal(t, 16, RoundOf32.MatchCount())
	assert.Equal(t, 1, RoundFinal.MatchCount())
	assert.Equal(t, 0, RoundCompleted.MatchCount())
	assert.True(t, RoundQuarterFinals.IsBracket())
	assert.False(t, RoundOngoing.IsBracket())
	assert.True(t, RoundCancelled.IsTerminal())
	assert.True(t, RoundUpcoming.IsPreBracket())
	assert.Equal(t, "Quarter-finals", RoundQuarterFinals.Label())
}

func TestFirstRoundFor(t *testing.T) {
	cases := map[int]Round{32: RoundOf32, 16: RoundOf16, 8: RoundQuarterFinals, 4: RoundSemiFinal, 2: RoundFinal}
	for size, want := range cases {
		got, err := FirstRoundFor(size)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, size := range []int{0, 1, 3, 6, 64} {
		_, err := FirstRoundFor(size)
		assert.ErrorIs(t, err, ErrBracketSize)
	}
}

func TestRoundEncoding(t *testing.T) {
	b, err := json.Marshal(struct {
		Round Round `json:"round"`
	}{RoundSemiFinal})
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":"SEMI_FINAL"}`, string(b))

	var decoded struct {
		Round Round `json:"round"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"round":"ROUND_OF_16"}`), &decoded))
	assert.Equal(t, RoundOf16, decoded.Round)
	assert.Error(t, json.Unmarshal([]byte(`{"round":"ROUND_OF_64"}`), &decoded))

	v, err := RoundFinal.Value()
	require.NoError(t, err)
	assert.Equal(t, "FINAL", v)

	var scanned Round
	require.NoError(t, scanned.Scan([]byte("COMPLETED")))
	assert.Equal(t, RoundCompleted, scanned)
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
	assert.Error(t, scanned.Scan(42))

	_, err = ParseRound("round_of_32")
	assert.ErrorIs(t, err, ErrUnknownRound)
}

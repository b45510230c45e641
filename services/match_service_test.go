package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuemaster/events"
	"cuemaster/models"
)

// firstMatch opens a two-player bracket and returns its only match.
func firstMatch(t *testing.T, f *fixture) (models.Match, *models.Player, *models.Player) {
	t.Helper()
	ctx := context.Background()
	tour, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Final only", BracketSize: 2})
	require.NoError(t, err)

	a := f.createPlayer(t, "alice", 1200)
	b := f.createPlayer(t, "bob", 1600)
	for _, p := range []*models.Player{a, b} {
		_, err := f.tournaments.RegisterPlayer(ctx, tour.ID, p.ID)
		require.NoError(t, err)
	}
	_, err = f.tournaments.Start(ctx, tour.ID)
	require.NoError(t, err)
	res, err := f.tournaments.GenerateNextRound(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	return res.Matches[0], a, b
}

func TestDeclareWinnerAppliesRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, b := firstMatch(t, f)

	res, err := f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID, Player1Score: 7, Player2Score: 4})
	require.NoError(t, err)
	require.NotNil(t, res.Match.WinnerID)
	assert.Equal(t, a.ID, *res.Match.WinnerID)
	assert.NotNil(t, res.Match.DecidedAt)

	// seeding puts the lower rating first
	assert.Equal(t, a.ID, m.Player1ID)
	wantA := NewRating(1200, ExpectedScore(1200, 1600), Win, models.RoundFinal, 0)
	wantB := NewRating(1600, ExpectedScore(1600, 1200), Loss, models.RoundFinal, 0)

	gotA, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := f.players.GetPlayer(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, wantA, *gotA.Rating)
	assert.Equal(t, wantB, *gotB.Rating)
	assert.Equal(t, 1, gotA.Experience)
	assert.Equal(t, 1, gotB.Experience)
	assert.Equal(t, 1, gotA.Wins)
	assert.Equal(t, 0, gotB.Wins)

	stored, err := f.matches.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Player1Score)
	assert.Equal(t, 4, stored.Player2Score)
	assert.Contains(t, f.events.topics(), events.TopicMatchDecided)
}

func TestDeclareWinnerTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, _ := firstMatch(t, f)

	_, err := f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID})
	require.NoError(t, err)
	after, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID})
	require.ErrorIs(t, err, ErrMatchAlreadyDecided)
	assert.Equal(t, KindConflict, KindOf(err))

	again, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, *after.Rating, *again.Rating)
	assert.Equal(t, after.Experience, again.Experience)
}

// Calls are serialised by the single test connection; the guards themselves
// are exercised in TestApplyRatingRejectsStaleExperience.
func TestRepeatedDeclareWinnerDecidesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, b := firstMatch(t, f)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winner := a.ID
			if i%2 == 1 {
				winner = b.ID
			}
			_, errs[i] = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: winner})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
	}
	assert.Equal(t, 1, ok)

	for _, id := range []string{a.ID, b.ID} {
		p, err := f.players.GetPlayer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Experience)
	}
}

func TestDeclareWinnerValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, _ := firstMatch(t, f)
	outsider := f.createPlayer(t, "outsider", 1500)

	_, err := f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: outsider.ID})
	require.ErrorIs(t, err, ErrInvalidWinner)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID, Player1Score: -1})
	require.ErrorIs(t, err, ErrInvalidScore)

	// a is player 1; the winner must have the higher score
	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID, Player1Score: 0, Player2Score: 9})
	require.ErrorIs(t, err, ErrInvalidScore)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID, Player1Score: 5, Player2Score: 5})
	require.ErrorIs(t, err, ErrInvalidScore)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{})
	require.ErrorIs(t, err, ErrDrawUnsupported)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID, Result: "draw"})
	require.ErrorIs(t, err, ErrDrawUnsupported)

	_, err = f.matches.DeclareWinner(ctx, "ghost", DeclareWinnerInput{WinnerID: a.ID})
	require.ErrorIs(t, err, ErrMatchNotFound)

	// nothing was written by the rejected calls
	stored, err := f.matches.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, stored.Decided())
	p, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Experience)
	assert.Equal(t, 1200, *p.Rating)
}

func TestDeclareWinnerOnCancelledTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, _ := firstMatch(t, f)

	_, err := f.tournaments.Cancel(ctx, m.TournamentID)
	require.NoError(t, err)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID})
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCheckScore(t *testing.T) {
	m := models.Match{Player1ID: "p1", Player2ID: "p2"}
	cases := []struct {
		winner string
		p1, p2 int
		ok     bool
	}{
		{"p1", 0, 0, true},
		{"p2", 0, 0, true},
		{"p1", 7, 4, true},
		{"p2", 4, 7, true},
		{"p1", 0, 9, false},
		{"p2", 9, 0, false},
		{"p1", 3, 3, false},
	}
	for _, tc := range cases {
		err := checkScore(m, tc.winner, tc.p1, tc.p2)
		if tc.ok {
			assert.NoError(t, err, "%s %d-%d", tc.winner, tc.p1, tc.p2)
		} else {
			assert.ErrorIs(t, err, ErrInvalidScore, "%s %d-%d", tc.winner, tc.p1, tc.p2)
		}
	}
}

func TestApplyRatingRejectsStaleExperience(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, a, b := firstMatch(t, f)

	before, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	opponent, err := f.players.GetPlayer(ctx, b.ID)
	require.NoError(t, err)
	change, err := RateMatch(*before, *opponent, a.ID, m.Round)
	require.NoError(t, err)

	_, err = f.matches.DeclareWinner(ctx, m.ID, DeclareWinnerInput{WinnerID: a.ID})
	require.NoError(t, err)

	// writing a change computed from the pre-match row must not land
	err = applyRating(f.db, *before, change.Player1)
	require.ErrorIs(t, err, ErrConcurrentUpdate)

	after, err := f.players.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Experience)
	assert.Equal(t, 1, after.Wins)
}

package services

import (
	"fmt"
	"sort"

	"cuemaster/models"
)

// RoundPlan is what generating the next round would do to a tournament.
// Pairings is empty when the plan closes the bracket.
type RoundPlan struct {
	From     models.Round `json:"from"`
	To       models.Round `json:"to"`
	Pairings []Pairing    `json:"pairings"`
	WinnerID string       `json:"winner_id,omitempty"`
}

func (p RoundPlan) Completes() bool { return p.To == models.RoundCompleted }

// PlanNextRound computes the next round of t without touching storage.
// roster holds the registered players; current holds the matches of the
// round t is in (ignored before the bracket starts).
func PlanNextRound(t models.Tournament, roster []models.Player, current []models.Match) (RoundPlan, error) {
	switch {
	case t.Round == models.RoundUpcoming:
		return RoundPlan{}, fmt.Errorf("%w: tournament %s has not been started", ErrIllegalTransition, t.ID)
	case t.Round.IsTerminal(), t.Round.IsZero():
		return RoundPlan{}, fmt.Errorf("%w: tournament %s is %s", ErrIllegalTransition, t.ID, t.Round)
	case t.Round == models.RoundOngoing:
		return planFirstRound(t, roster)
	}
	return planAdvance(t, roster, current)
}

func planFirstRound(t models.Tournament, roster []models.Player) (RoundPlan, error) {
	first, err := models.FirstRoundFor(t.BracketSize)
	if err != nil {
		return RoundPlan{}, fmt.Errorf("%w: %w", ErrInvalidBracketSize, err)
	}
	if len(roster) != t.BracketSize {
		return RoundPlan{}, insufficientPlayers(t.BracketSize, len(roster))
	}
	pairs, err := SeedingPairs(roster)
	if err != nil {
		return RoundPlan{}, err
	}
	if len(pairs) != first.MatchCount() {
		return RoundPlan{}, insufficientPlayers(t.BracketSize, len(roster))
	}
	return RoundPlan{From: t.Round, To: first, Pairings: pairs}, nil
}

func planAdvance(t models.Tournament, roster []models.Player, current []models.Match) (RoundPlan, error) {
	round := t.Round
	matches := make([]models.Match, 0, len(current))
	for _, m := range current {
		if m.Round == round {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Position < matches[j].Position })

	winners := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.WinnerID == nil {
			return RoundPlan{}, fmt.Errorf("%w: match %d of %s is undecided", ErrInsufficientWinners, m.Position, round)
		}
		winners = append(winners, *m.WinnerID)
	}
	if len(winners) != round.MatchCount() {
		return RoundPlan{}, fmt.Errorf("%w: %s has %d of %d winners", ErrInsufficientWinners, round, len(winners), round.MatchCount())
	}

	next, _ := round.Next()
	if next == models.RoundCompleted {
		return RoundPlan{From: round, To: next, WinnerID: winners[0]}, nil
	}

	byID := make(map[string]models.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	lookup := func(id string) models.Player {
		if p, ok := byID[id]; ok {
			return p
		}
		return models.Player{ID: id}
	}

	pairs := make([]Pairing, 0, len(winners)/2)
	for i := 0; i+1 < len(winners); i += 2 {
		pairs = append(pairs, Pairing{
			Position: i / 2,
			Player1:  lookup(winners[i]),
			Player2:  lookup(winners[i+1]),
		})
	}
	return RoundPlan{From: round, To: next, Pairings: pairs}, nil
}

// models/round.go
package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal round transition")
	ErrUnknownRound      = errors.New("unknown round")
	ErrBracketSize       = errors.New("bracket size must be one of 2, 4, 8, 16 or 32")
)

// Round is the stage a tournament (or a match) is in. The set of values is
// closed: the only valid rounds are the package-level vars below, and moving
// between them goes through the transition table.
type Round struct {
	name string
}

var (
	RoundUpcoming      = Round{"UPCOMING"}
	RoundOngoing       = Round{"ONGOING"}
	RoundOf32          = Round{"ROUND_OF_32"}
	RoundOf16          = Round{"ROUND_OF_16"}
	RoundQuarterFinals = Round{"QUARTER_FINALS"}
	RoundSemiFinal     = Round{"SEMI_FINAL"}
	RoundFinal         = Round{"FINAL"}
	RoundCompleted     = Round{"COMPLETED"}
	RoundCancelled     = Round{"CANCELLED"}
)

var allRounds = []Round{
	RoundUpcoming,
	RoundOngoing,
	RoundOf32,
	RoundOf16,
	RoundQuarterFinals,
	RoundSemiFinal,
	RoundFinal,
	RoundCompleted,
	RoundCancelled,
}

// bracketOrder lists the elimination rounds from first to last.
var bracketOrder = []Round{RoundOf32, RoundOf16, RoundQuarterFinals, RoundSemiFinal, RoundFinal}

var transitions = map[Round][]Round{
	RoundUpcoming:      {RoundOngoing, RoundCancelled},
	RoundOngoing:       {RoundOf32, RoundOf16, RoundQuarterFinals, RoundSemiFinal, RoundFinal, RoundCancelled},
	RoundOf32:          {RoundOf16, RoundCancelled},
	RoundOf16:          {RoundQuarterFinals, RoundCancelled},
	RoundQuarterFinals: {RoundSemiFinal, RoundCancelled},
	RoundSemiFinal:     {RoundFinal, RoundCancelled},
	RoundFinal:         {RoundCompleted, RoundCancelled},
}

var matchCounts = map[Round]int{
	RoundOf32:          16,
	RoundOf16:          8,
	RoundQuarterFinals: 4,
	RoundSemiFinal:     2,
	RoundFinal:         1,
}

var labels = map[Round]string{
	RoundUpcoming:      "Upcoming",
	RoundOngoing:       "Ongoing",
	RoundOf32:          "Round of 32",
	RoundOf16:          "Round of 16",
	RoundQuarterFinals: "Quarter-finals",
	RoundSemiFinal:     "Semi-final",
	RoundFinal:         "Final",
	RoundCompleted:     "Completed",
	RoundCancelled:     "Cancelled",
}

// ParseRound resolves a stored round name.
func ParseRound(s string) (Round, error) {
	for _, r := range allRounds {
		if r.name == s {
			return r, nil
		}
	}
	return Round{}, fmt.Errorf("%w: %q", ErrUnknownRound, s)
}

// FirstRoundFor returns the opening bracket round for a bracket of the given size.
func FirstRoundFor(bracketSize int) (Round, error) {
	for _, r := range bracketOrder {
		if matchCounts[r]*2 == bracketSize {
			return r, nil
		}
	}
	return Round{}, fmt.Errorf("%w: got %d", ErrBracketSize, bracketSize)
}

func (r Round) String() string { return r.name }

func (r Round) Label() string { return labels[r] }

func (r Round) IsZero() bool { return r.name == "" }

// IsBracket reports whether matches are played in this round.
func (r Round) IsBracket() bool {
	_, ok := matchCounts[r]
	return ok
}

func (r Round) IsPreBracket() bool {
	return r == RoundUpcoming || r == RoundOngoing
}

func (r Round) IsTerminal() bool {
	return r == RoundCompleted || r == RoundCancelled
}

// MatchCount is the number of matches a full round holds; zero outside the bracket.
func (r Round) MatchCount() int { return matchCounts[r] }

// Next returns the bracket round that follows r. The final is followed by COMPLETED.
func (r Round) Next() (Round, bool) {
	if r == RoundFinal {
		return RoundCompleted, true
	}
	for i, b := range bracketOrder[:len(bracketOrder)-1] {
		if b == r {
			return bracketOrder[i+1], true
		}
	}
	return Round{}, false
}

// Previous returns the bracket round played before r.
func (r Round) Previous() (Round, bool) {
	for i, b := range bracketOrder {
		if b == r && i > 0 {
			return bracketOrder[i-1], true
		}
	}
	return Round{}, false
}

func (r Round) CanTransitionTo(next Round) bool {
	for _, allowed := range transitions[r] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo validates the move against the transition table.
func (r Round) TransitionTo(next Round) (Round, error) {
	if !r.CanTransitionTo(next) {
		return r, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r, next)
	}
	return next, nil
}

func (r Round) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.name, nil
}

func (r *Round) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Round{}
		return nil
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Round", src)
	}
}

func (r Round) MarshalText() ([]byte, error) {
	return []byte(r.name), nil
}

func (r *Round) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = Round{}
		return nil
	}
	parsed, err := ParseRound(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

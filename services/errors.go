package services

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for the boundary layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a typed domain failure. Compare with errors.Is against the
// sentinels below; extra context is attached with fmt.Errorf("%w: ...").
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrPlayerNotFound     = newError(KindNotFound, "player_not_found", "player not found")
	ErrTournamentNotFound = newError(KindNotFound, "tournament_not_found", "tournament not found")
	ErrMatchNotFound      = newError(KindNotFound, "match_not_found", "match not found")
	ErrNotRegistered      = newError(KindNotFound, "not_registered", "player is not registered in this tournament")

	ErrInsufficientPlayers = newError(KindValidation, "insufficient_players", "insufficient players for this round")
	ErrInvalidWinner       = newError(KindValidation, "invalid_winner", "winner must be one of the match participants")
	ErrNotCompetitor       = newError(KindValidation, "not_competitor", "player has no rating and cannot compete")
	ErrInvalidBracketSize  = newError(KindValidation, "invalid_bracket_size", "bracket size must be one of 2, 4, 8, 16 or 32")
	ErrInvalidScore        = newError(KindValidation, "invalid_score", "invalid score")
	ErrDrawUnsupported     = newError(KindValidation, "draw_unsupported", "draws are not supported, a winner is required")
	ErrOddPopulation       = newError(KindValidation, "odd_population", "seeding needs an even number of players")
	ErrInvalidInput        = newError(KindValidation, "invalid_input", "invalid input")

	ErrInsufficientWinners   = newError(KindConflict, "insufficient_winners", "not enough winners to create pairs for the next round")
	ErrRoundAlreadyGenerated = newError(KindConflict, "round_already_generated", "round already generated")
	ErrMatchAlreadyDecided   = newError(KindConflict, "match_already_decided", "match already decided")
	ErrIllegalTransition     = newError(KindConflict, "illegal_transition", "illegal round transition")
	ErrRosterFrozen          = newError(KindConflict, "roster_frozen", "roster is frozen once the bracket has started")
	ErrRosterFull            = newError(KindConflict, "roster_full", "roster is full")
	ErrAlreadyRegistered     = newError(KindConflict, "already_registered", "player already registered")
	ErrConcurrentUpdate      = newError(KindConflict, "concurrent_update", "record changed concurrently, retry")
)

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the domain error in err's chain, or "internal".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal"
}

func insufficientPlayers(required, got int) error {
	return fmt.Errorf("%w. Required: %d, registered: %d", ErrInsufficientPlayers, required, got)
}

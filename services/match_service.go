package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"cuemaster/events"
	"cuemaster/models"
)

type MatchService struct {
	DB      *gorm.DB
	Events  events.Publisher
	Metrics *Metrics
	Logger  *slog.Logger
}

func NewMatchService(db *gorm.DB, pub events.Publisher, metrics *Metrics, logger *slog.Logger) *MatchService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &MatchService{DB: db, Events: pub, Metrics: metrics, Logger: logger}
}

func (s *MatchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var m models.Match
	if err := s.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrMatchNotFound, id)
	}
	return &m, nil
}

type DeclareWinnerInput struct {
	WinnerID     string `json:"winner_id"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	// Result is optional; "draw" is rejected.
	Result string `json:"result,omitempty"`
}

// DeclareResult is the stored match and the ratings it produced.
type DeclareResult struct {
	Match  models.Match `json:"match"`
	Rating RatingChange `json:"rating"`
}

// DeclareWinner records the winner of a match and applies the rating update
// to both participants in one transaction. A match is decided exactly once.
func (s *MatchService) DeclareWinner(ctx context.Context, matchID string, in DeclareWinnerInput) (*DeclareResult, error) {
	if in.Result != "" {
		if _, err := ParseResult(in.Result); err != nil {
			return nil, err
		}
	}
	winnerID := strings.TrimSpace(in.WinnerID)
	if winnerID == "" {
		return nil, fmt.Errorf("%w: winner_id is required", ErrDrawUnsupported)
	}
	if in.Player1Score < 0 || in.Player2Score < 0 {
		return nil, fmt.Errorf("%w: got %d-%d", ErrInvalidScore, in.Player1Score, in.Player2Score)
	}

	var out DeclareResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.First(&m, "id = ?", matchID).Error; err != nil {
			return lookupErr(err, ErrMatchNotFound, matchID)
		}
		if m.Decided() {
			return fmt.Errorf("%w: %s", ErrMatchAlreadyDecided, m.ID)
		}
		if !m.HasParticipant(winnerID) {
			return fmt.Errorf("%w: %s did not play match %s", ErrInvalidWinner, winnerID, m.ID)
		}
		if err := checkScore(m, winnerID, in.Player1Score, in.Player2Score); err != nil {
			return err
		}

		var t models.Tournament
		if err := tx.First(&t, "id = ?", m.TournamentID).Error; err != nil {
			return lookupErr(err, ErrTournamentNotFound, m.TournamentID)
		}
		if t.Round != m.Round {
			return fmt.Errorf("%w: match is in %s but tournament is %s", ErrIllegalTransition, m.Round, t.Round)
		}

		players, err := playersByID(tx, []string{m.Player1ID, m.Player2ID})
		if err != nil {
			return err
		}
		change, err := RateMatch(players[0], players[1], winnerID, m.Round)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Match{}).
			Where("id = ? AND winner_id IS NULL", m.ID).
			Updates(map[string]any{
				"winner_id":     winnerID,
				"player1_score": in.Player1Score,
				"player2_score": in.Player2Score,
				"decided_at":    now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to record winner: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrMatchAlreadyDecided, m.ID)
		}

		for i, c := range []PlayerRatingChange{change.Player1, change.Player2} {
			if err := applyRating(tx, players[i], c); err != nil {
				return err
			}
		}

		m.WinnerID = &winnerID
		m.Player1Score, m.Player2Score = in.Player1Score, in.Player2Score
		m.DecidedAt = &now
		out = DeclareResult{Match: m, Rating: change}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, &out)
	return &out, nil
}

// checkScore requires the winner to have outscored the loser. 0-0 means no
// score was recorded.
func checkScore(m models.Match, winnerID string, p1, p2 int) error {
	if p1 == 0 && p2 == 0 {
		return nil
	}
	won, lost := p1, p2
	if winnerID == m.Player2ID {
		won, lost = p2, p1
	}
	if won <= lost {
		return fmt.Errorf("%w: winner scored %d against %d", ErrInvalidScore, won, lost)
	}
	return nil
}

// applyRating writes one side of a rating change. The experience counter
// acts as the version: it moves on every rated match.
func applyRating(tx *gorm.DB, before models.Player, c PlayerRatingChange) error {
	res := tx.Model(&models.Player{}).
		Where("id = ? AND experience = ?", before.ID, before.Experience).
		Updates(map[string]any{
			"rating":     c.NewRating,
			"experience": c.Experience,
			"wins":       c.Wins,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update player %s: %w", before.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s", ErrConcurrentUpdate, before.ID)
	}
	return nil
}

func (s *MatchService) announce(ctx context.Context, r *DeclareResult) {
	s.Metrics.matchDecided(r.Rating)

	winner, loser := r.Rating.Player1, r.Rating.Player2
	if !winner.Won {
		winner, loser = loser, winner
	}
	s.Logger.Info("Match decided",
		slog.String("match_id", r.Match.ID),
		slog.String("tournament_id", r.Match.TournamentID),
		slog.String("winner_id", winner.PlayerID),
		slog.Int("winner_delta", winner.Delta()),
		slog.Int("loser_delta", loser.Delta()),
	)
	if err := s.Events.Publish(ctx, events.TopicMatchDecided, events.MatchDecided{
		MatchID:      r.Match.ID,
		TournamentID: r.Match.TournamentID,
		Round:        r.Match.Round.String(),
		WinnerID:     winner.PlayerID,
		LoserID:      loser.PlayerID,
		WinnerDelta:  winner.Delta(),
		LoserDelta:   loser.Delta(),
		OccurredAt:   time.Now().UTC(),
	}); err != nil {
		s.Logger.Error("Failed to publish match decision", slog.String("match_id", r.Match.ID), slog.Any("error", err))
	}
}

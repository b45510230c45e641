package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"cuemaster/events"
	"cuemaster/models"
)

type TournamentService struct {
	DB                 *gorm.DB
	Events             events.Publisher
	Metrics            *Metrics
	Logger             *slog.Logger
	DefaultBracketSize int
}

func NewTournamentService(db *gorm.DB, pub events.Publisher, metrics *Metrics, logger *slog.Logger) *TournamentService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &TournamentService{
		DB:                 db,
		Events:             pub,
		Metrics:            metrics,
		Logger:             logger,
		DefaultBracketSize: models.DefaultBracketSize,
	}
}

type CreateTournamentInput struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	BracketSize int    `json:"bracket_size"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	size := in.BracketSize
	if size == 0 {
		size = s.DefaultBracketSize
	}
	if _, err := models.FirstRoundFor(size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBracketSize, err)
	}

	t := models.Tournament{
		ID:          uuid.NewString(),
		Name:        name,
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		Round:       models.RoundUpcoming,
		BracketSize: size,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := slug.Make(name)
		t.Slug = base
		var taken int64
		if err := tx.Model(&models.Tournament{}).Where("slug = ?", base).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			t.Slug = base + "-" + t.ID[:8]
		}
		return tx.Create(&t).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.Logger.Info("Tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("slug", t.Slug),
		slog.Int("bracket_size", t.BracketSize),
	)
	return &t, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return loadTournament(s.DB.WithContext(ctx), id)
}

func loadTournament(db *gorm.DB, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := db.Preload("Roster", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at, id")
	}).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, ErrTournamentNotFound, id)
	}
	return &t, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	var list []models.Tournament
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return list, nil
}

// RegisterPlayer adds a competitor to the roster while registration is open.
func (s *TournamentService) RegisterPlayer(ctx context.Context, tournamentID, playerID string) (*models.TournamentEntry, error) {
	var entry models.TournamentEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := openRoster(tx, tournamentID)
		if err != nil {
			return err
		}

		var p models.Player
		if err := tx.First(&p, "id = ?", playerID).Error; err != nil {
			return lookupErr(err, ErrPlayerNotFound, playerID)
		}
		if !p.IsRated() {
			return fmt.Errorf("%w: %s", ErrNotCompetitor, playerID)
		}
		for _, e := range t.Roster {
			if e.PlayerID == playerID {
				return fmt.Errorf("%w: %s", ErrAlreadyRegistered, playerID)
			}
		}
		if len(t.Roster) >= t.BracketSize {
			return fmt.Errorf("%w: %d of %d", ErrRosterFull, len(t.Roster), t.BracketSize)
		}

		entry = models.TournamentEntry{ID: uuid.NewString(), TournamentID: t.ID, PlayerID: p.ID}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrAlreadyRegistered, playerID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Player registered",
		slog.String("tournament_id", tournamentID),
		slog.String("player_id", playerID),
	)
	return &entry, nil
}

// UnregisterPlayer withdraws a competitor before the first round is generated.
func (s *TournamentService) UnregisterPlayer(ctx context.Context, tournamentID, playerID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := openRoster(tx, tournamentID)
		if err != nil {
			return err
		}
		res := tx.Where("tournament_id = ? AND player_id = ?", t.ID, playerID).Delete(&models.TournamentEntry{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove entry: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotRegistered, playerID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Player unregistered",
		slog.String("tournament_id", tournamentID),
		slog.String("player_id", playerID),
	)
	return nil
}

// openRoster loads a tournament whose roster may still change and claims it
// for this transaction by bumping its version. A concurrent roster change
// blocks on the row and then fails with ErrConcurrentUpdate.
func openRoster(tx *gorm.DB, id string) (*models.Tournament, error) {
	t, err := loadTournament(tx, id)
	if err != nil {
		return nil, err
	}
	if t.RosterFrozen() {
		return nil, fmt.Errorf("%w: tournament is %s", ErrRosterFrozen, t.Round)
	}
	if err := bumpVersion(tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func bumpVersion(tx *gorm.DB, t *models.Tournament) error {
	res := tx.Model(&models.Tournament{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Update("version", t.Version+1)
	if res.Error != nil {
		return fmt.Errorf("failed to update tournament: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tournament %s", ErrConcurrentUpdate, t.ID)
	}
	t.Version++
	return nil
}

// Start opens the tournament; the roster stays open until the first round.
func (s *TournamentService) Start(ctx context.Context, id string) (*models.Tournament, error) {
	return s.transition(ctx, id, models.RoundOngoing)
}

// Cancel stops a tournament in any non-terminal round.
func (s *TournamentService) Cancel(ctx context.Context, id string) (*models.Tournament, error) {
	return s.transition(ctx, id, models.RoundCancelled)
}

func (s *TournamentService) transition(ctx context.Context, id string, to models.Round) (*models.Tournament, error) {
	var out *models.Tournament
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := loadTournament(tx, id)
		if err != nil {
			return err
		}
		if err := advanceRound(tx, t, to, nil); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Tournament round changed",
		slog.String("tournament_id", out.ID),
		slog.String("round", out.Round.String()),
	)
	return out, nil
}

// advanceRound moves t to the given round, guarded by the transition table
// and by t.Version. t is updated in place on success.
func advanceRound(tx *gorm.DB, t *models.Tournament, to models.Round, winnerID *string) error {
	if _, err := t.Round.TransitionTo(to); err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalTransition, err)
	}
	updates := map[string]any{
		"round":   to,
		"version": t.Version + 1,
	}
	if winnerID != nil {
		updates["winner_id"] = *winnerID
	}
	res := tx.Model(&models.Tournament{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update tournament: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tournament %s", ErrConcurrentUpdate, t.ID)
	}
	t.Round = to
	t.Version++
	if winnerID != nil {
		t.WinnerID = winnerID
	}
	return nil
}

// RoundResult is the outcome of GenerateNextRound.
type RoundResult struct {
	Tournament models.Tournament `json:"tournament"`
	Matches    []models.Match    `json:"matches"`
}

// GenerateNextRound plans and stores the next round of a tournament in one
// transaction. A round is generated at most once; a second call, concurrent
// or not, fails with ErrRoundAlreadyGenerated.
func (s *TournamentService) GenerateNextRound(ctx context.Context, id string) (*RoundResult, error) {
	var result RoundResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := loadTournament(tx, id)
		if err != nil {
			return err
		}

		var roster []models.Player
		var current []models.Match
		if t.Round.IsPreBracket() {
			if roster, err = playersByID(tx, t.PlayerIDs()); err != nil {
				return err
			}
		} else if t.Round.IsBracket() {
			if current, err = matchesFor(tx, t.ID, t.Round); err != nil {
				return err
			}
		}

		plan, err := PlanNextRound(*t, roster, current)
		if err != nil {
			return err
		}

		if plan.Completes() {
			if err := advanceRound(tx, t, plan.To, &plan.WinnerID); err != nil {
				return completionConflict(err)
			}
			if err := countPlayers(tx, "tournament_wins", []string{plan.WinnerID}); err != nil {
				return err
			}
			result.Tournament = *t
			return nil
		}

		var existing int64
		if err := tx.Model(&models.Match{}).
			Where("tournament_id = ? AND round = ?", t.ID, plan.To).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s already has %d matches", ErrRoundAlreadyGenerated, plan.To, existing)
		}

		matches := make([]models.Match, 0, len(plan.Pairings))
		for _, p := range plan.Pairings {
			matches = append(matches, models.Match{
				ID:           uuid.NewString(),
				TournamentID: t.ID,
				Round:        plan.To,
				Position:     p.Position,
				Player1ID:    p.Player1.ID,
				Player2ID:    p.Player2.ID,
			})
		}
		if err := tx.Create(&matches).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrRoundAlreadyGenerated, plan.To)
			}
			return fmt.Errorf("failed to create matches: %w", err)
		}
		if err := advanceRound(tx, t, plan.To, nil); err != nil {
			return completionConflict(err)
		}
		if plan.From == models.RoundOngoing {
			if err := countPlayers(tx, "tournaments", t.PlayerIDs()); err != nil {
				return err
			}
		}

		result.Tournament = *t
		result.Matches = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announceRound(ctx, &result)
	return &result, nil
}

// countPlayers increments one of the per-player tournament counters.
func countPlayers(tx *gorm.DB, column string, ids []string) error {
	err := tx.Model(&models.Player{}).
		Where("id IN ?", ids).
		Update(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// A lost version race means another caller generated the round first.
func completionConflict(err error) error {
	if errors.Is(err, ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %w", ErrRoundAlreadyGenerated, err)
	}
	return err
}

func (s *TournamentService) announceRound(ctx context.Context, r *RoundResult) {
	t := r.Tournament
	now := time.Now().UTC()
	s.Metrics.roundGenerated(t.Round.String())

	if t.Round == models.RoundCompleted {
		winner := ""
		if t.WinnerID != nil {
			winner = *t.WinnerID
		}
		s.Logger.Info("Tournament completed",
			slog.String("tournament_id", t.ID),
			slog.String("winner_id", winner),
		)
		if err := s.Events.Publish(ctx, events.TopicTournamentCompleted, events.TournamentCompleted{
			TournamentID: t.ID,
			WinnerID:     winner,
			OccurredAt:   now,
		}); err != nil {
			s.Logger.Error("Failed to publish completion", slog.String("tournament_id", t.ID), slog.Any("error", err))
		}
		return
	}

	ids := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.ID)
	}
	s.Logger.Info("Round generated",
		slog.String("tournament_id", t.ID),
		slog.String("round", t.Round.String()),
		slog.Int("matches", len(r.Matches)),
	)
	if err := s.Events.Publish(ctx, events.TopicRoundGenerated, events.RoundGenerated{
		TournamentID: t.ID,
		Round:        t.Round.String(),
		MatchIDs:     ids,
		OccurredAt:   now,
	}); err != nil {
		s.Logger.Error("Failed to publish round", slog.String("tournament_id", t.ID), slog.Any("error", err))
	}
}

// ListMatches returns the matches of a tournament, optionally for one round,
// in bracket order.
func (s *TournamentService) ListMatches(ctx context.Context, tournamentID string, round models.Round) ([]models.Match, error) {
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Tournament{}).Where("id = ?", tournamentID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
	}
	if !round.IsZero() {
		return matchesFor(db, tournamentID, round)
	}
	var matches []models.Match
	if err := db.Where("tournament_id = ?", tournamentID).Order("created_at, position").Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func matchesFor(db *gorm.DB, tournamentID string, round models.Round) ([]models.Match, error) {
	var matches []models.Match
	err := db.Where("tournament_id = ? AND round = ?", tournamentID, round).
		Order("position").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s matches: %w", round, err)
	}
	return matches, nil
}

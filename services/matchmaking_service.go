package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"cuemaster/models"
)

// MatchmakingService pairs players for open play, outside any bracket.
type MatchmakingService struct {
	DB     *gorm.DB
	Logger *slog.Logger
	Rand   Rand
}

func NewMatchmakingService(db *gorm.DB, logger *slog.Logger) *MatchmakingService {
	return &MatchmakingService{DB: db, Logger: logger}
}

type OpenPairingsInput struct {
	// PlayerIDs limits the pool; empty means every competitor.
	PlayerIDs []string `json:"player_ids"`
	// Threshold overrides the calibrated rating tolerance.
	Threshold *int `json:"threshold,omitempty"`
	// Tiers > 1 pairs inside skill tiers only.
	Tiers int `json:"tiers"`
}

type OpenPairingsResult struct {
	Threshold int             `json:"threshold"`
	Pairs     []Pairing       `json:"pairs"`
	Unmatched []models.Player `json:"unmatched"`
	Tiers     []TierPairings  `json:"tiers,omitempty"`
}

func (s *MatchmakingService) OpenPairings(ctx context.Context, in OpenPairingsInput) (*OpenPairingsResult, error) {
	if in.Threshold != nil && *in.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidInput)
	}
	if in.Tiers < 0 {
		return nil, fmt.Errorf("%w: tiers must not be negative", ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	var pool []models.Player
	var err error
	if len(in.PlayerIDs) > 0 {
		if pool, err = playersByID(db, dedupe(in.PlayerIDs)); err != nil {
			return nil, err
		}
		for _, p := range pool {
			if !p.IsRated() {
				return nil, fmt.Errorf("%w: %s", ErrNotCompetitor, p.ID)
			}
		}
	} else if pool, err = ratedPlayers(db); err != nil {
		return nil, err
	}

	out := &OpenPairingsResult{Threshold: AdaptiveThreshold(playerRatings(pool))}
	if in.Threshold != nil {
		out.Threshold = *in.Threshold
	}

	if in.Tiers > 1 {
		out.Tiers = TieredPairs(pool, in.Tiers, out.Threshold, s.Rand)
		for _, t := range out.Tiers {
			out.Pairs = append(out.Pairs, t.Pairs...)
			out.Unmatched = append(out.Unmatched, t.Unmatched...)
		}
		for i := range out.Pairs {
			out.Pairs[i].Position = i
		}
	} else {
		out.Pairs, out.Unmatched = AdaptivePairs(pool, out.Threshold)
	}

	s.Logger.Debug("Open pairings computed",
		slog.Int("pool", len(pool)),
		slog.Int("threshold", out.Threshold),
		slog.Int("pairs", len(out.Pairs)),
		slog.Int("unmatched", len(out.Unmatched)),
	)
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

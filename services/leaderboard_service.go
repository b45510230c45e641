package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cuemaster/models"
)

type LeaderboardService struct {
	DB        *gorm.DB
	Metrics   *Metrics
	Logger    *slog.Logger
	TierCount int
	Rand      Rand
}

func NewLeaderboardService(db *gorm.DB, metrics *Metrics, logger *slog.Logger, tierCount int) *LeaderboardService {
	return &LeaderboardService{DB: db, Metrics: metrics, Logger: logger, TierCount: tierCount}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]RankedPlayer, error) {
	players, err := ratedPlayers(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return RankPlayers(players), nil
}

// Tiers clusters every competitor into at most k skill tiers.
func (s *LeaderboardService) Tiers(ctx context.Context, k int) ([]SkillTier, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: tier count must be at least 1", ErrInvalidInput)
	}
	players, err := ratedPlayers(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return ClusterPlayers(players, k, s.Rand), nil
}

// Snapshot is a persisted leaderboard at one point in time.
type Snapshot struct {
	ID         string                    `json:"id"`
	CapturedAt time.Time                 `json:"captured_at"`
	Entries    []models.LeaderboardEntry `json:"entries"`
}

// Snapshot ranks and tiers every competitor and stores the result.
func (s *LeaderboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	players, err := ratedPlayers(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	ranked := RankPlayers(players)

	tierOf := make(map[string]int, len(players))
	if s.TierCount > 0 {
		for _, t := range ClusterPlayers(players, s.TierCount, s.Rand) {
			for _, p := range t.Players {
				tierOf[p.ID] = t.Tier
			}
		}
	}

	snap := Snapshot{ID: uuid.NewString(), CapturedAt: time.Now().UTC()}
	snap.Entries = make([]models.LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		snap.Entries = append(snap.Entries, models.LeaderboardEntry{
			ID:         uuid.NewString(),
			SnapshotID: snap.ID,
			PlayerID:   r.ID,
			Name:       r.Name,
			Rating:     r.Rating,
			Rank:       r.Rank,
			Tier:       tierOf[r.ID],
			CapturedAt: snap.CapturedAt,
		})
	}

	if len(snap.Entries) > 0 {
		if err := s.DB.WithContext(ctx).CreateInBatches(&snap.Entries, 200).Error; err != nil {
			return nil, fmt.Errorf("failed to store snapshot: %w", err)
		}
	}
	s.Metrics.snapshotTaken()
	s.Logger.Info("Leaderboard snapshot stored",
		slog.String("snapshot_id", snap.ID),
		slog.Int("entries", len(snap.Entries)),
	)
	return &snap, nil
}

// LatestSnapshot returns the most recent stored snapshot, or nil when none exists.
func (s *LeaderboardService) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	db := s.DB.WithContext(ctx)
	var last models.LeaderboardEntry
	err := db.Order("captured_at DESC").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if last.SnapshotID == "" {
		return nil, nil
	}

	snap := Snapshot{ID: last.SnapshotID, CapturedAt: last.CapturedAt}
	if err := db.Where("snapshot_id = ?", last.SnapshotID).Order("rank, name, player_id").Find(&snap.Entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &snap, nil
}

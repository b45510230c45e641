package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cuemaster/models"
)

type PlayerService struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func NewPlayerService(db *gorm.DB, logger *slog.Logger) *PlayerService {
	return &PlayerService{DB: db, Logger: logger}
}

type CreatePlayerInput struct {
	Name string `json:"name"`
	Role string `json:"role"`
	// Rating seeds a competitor above or below the default. Ignored for organisers.
	Rating *int `json:"rating,omitempty"`
}

func (s *PlayerService) CreatePlayer(ctx context.Context, in CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	p := models.Player{ID: uuid.NewString(), Name: name}
	switch in.Role {
	case "", models.RolePlayer:
		rating := models.DefaultRating
		if in.Rating != nil {
			if *in.Rating <= 0 {
				return nil, fmt.Errorf("%w: rating must be positive", ErrInvalidInput)
			}
			rating = *in.Rating
		}
		p.Role = models.RolePlayer
		p.Rating = &rating
	case models.RoleOrganiser:
		p.Role = models.RoleOrganiser
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	s.Logger.Info("Player created", slog.String("player_id", p.ID), slog.String("role", p.Role))
	return &p, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrPlayerNotFound, id)
	}
	return &p, nil
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	if err := s.DB.WithContext(ctx).Order("name, id").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// ListRatedPlayers returns every competitor, i.e. every player with a rating.
func (s *PlayerService) ListRatedPlayers(ctx context.Context) ([]models.Player, error) {
	return ratedPlayers(s.DB.WithContext(ctx))
}

func ratedPlayers(db *gorm.DB) ([]models.Player, error) {
	var players []models.Player
	if err := db.Where("rating IS NOT NULL").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to list rated players: %w", err)
	}
	return players, nil
}

// playersByID loads exactly the given players, in the order of ids.
func playersByID(db *gorm.DB, ids []string) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Player
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	byID := make(map[string]models.Player, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		out = append(out, p)
	}
	return out, nil
}

package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cuemaster/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type published struct {
	Topic   string
	Payload any
}

// recorder is an events.Publisher that keeps everything it is given.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic, payload})
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}

type fixture struct {
	db          *gorm.DB
	events      *recorder
	players     *PlayerService
	tournaments *TournamentService
	matches     *MatchService
	leaderboard *LeaderboardService
	matchmaking *MatchmakingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	rec := &recorder{}
	log := discardLogger()

	lb := NewLeaderboardService(db, nil, log, 2)
	lb.Rand = seeded(1)
	mm := NewMatchmakingService(db, log)
	mm.Rand = seeded(2)

	return &fixture{
		db:          db,
		events:      rec,
		players:     NewPlayerService(db, log),
		tournaments: NewTournamentService(db, rec, nil, log),
		matches:     NewMatchService(db, rec, nil, log),
		leaderboard: lb,
		matchmaking: mm,
	}
}

func (f *fixture) createPlayer(t *testing.T, name string, rating int) *models.Player {
	t.Helper()
	p, err := f.players.CreatePlayer(context.Background(), CreatePlayerInput{Name: name, Rating: &rating})
	require.NoError(t, err)
	return p
}

// openTournament creates a started tournament with a full roster.
func (f *fixture) openTournament(t *testing.T, size int) (*models.Tournament, []*models.Player) {
	t.Helper()
	ctx := context.Background()
	tour, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Club Night", BracketSize: size})
	require.NoError(t, err)

	roster := make([]*models.Player, 0, size)
	for _, p := range fakeRoster(size, uint64(size)) {
		created := f.createPlayer(t, p.Name, *p.Rating)
		_, err := f.tournaments.RegisterPlayer(ctx, tour.ID, created.ID)
		require.NoError(t, err)
		roster = append(roster, created)
	}
	tour, err = f.tournaments.Start(ctx, tour.ID)
	require.NoError(t, err)
	return tour, roster
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cuemaster/config"
	"cuemaster/events"
	"cuemaster/handlers"
	"cuemaster/middleware"
	"cuemaster/models"
	"cuemaster/services"
	"cuemaster/utils"
	"cuemaster/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := &cli.App{
		Name:  "cuemaster",
		Usage: "tournament brackets, ratings and leaderboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API and the snapshot job", Action: serve},
			{Name: "migrate", Usage: "create or update the database schema", Action: migrate},
			{Name: "snapshot", Usage: "take and archive one leaderboard snapshot", Action: snapshot},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type deps struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func setup(c *cli.Context) (*deps, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &deps{cfg: cfg, logger: logger, db: db}, nil
}

func (rt *deps) archiver(ctx context.Context) (workers.Archiver, error) {
	if !rt.cfg.R2.Enabled() {
		rt.logger.Info("R2 not configured, snapshots are kept in the database only")
		return nil, nil
	}
	client, err := utils.NewR2Client(ctx, rt.cfg.R2)
	if err != nil {
		return nil, err
	}
	return utils.NewR2Archiver(client, rt.cfg.R2.Bucket, rt.cfg.R2.Prefix), nil
}

func migrate(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	if err := rt.db.WithContext(c.Context).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	rt.logger.Info("Database migrated")
	return nil
}

func snapshot(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	arch, err := rt.archiver(c.Context)
	if err != nil {
		return err
	}
	lb := services.NewLeaderboardService(rt.db, nil, rt.logger, rt.cfg.Leaderboard.TierCount)
	snap, err := workers.NewSnapshotWorker(lb, arch, rt.cfg.Leaderboard.SnapshotInterval, rt.logger).RunOnce(c.Context)
	if err != nil {
		return err
	}
	rt.logger.Info("Snapshot taken", slog.String("snapshot_id", snap.ID), slog.Int("entries", len(snap.Entries)))
	return nil
}

func serve(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	if err := rt.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	bus := events.NewBus(rt.logger)
	defer bus.Close()

	tournaments := services.NewTournamentService(rt.db, bus, metrics, rt.logger)
	tournaments.DefaultBracketSize = rt.cfg.Tournament.DefaultBracketSize
	leaderboard := services.NewLeaderboardService(rt.db, metrics, rt.logger, rt.cfg.Leaderboard.TierCount)

	arch, err := rt.archiver(ctx)
	if err != nil {
		return err
	}
	worker := workers.NewSnapshotWorker(leaderboard, arch, rt.cfg.Leaderboard.SnapshotInterval, rt.logger)
	if err := worker.Subscribe(ctx, bus); err != nil {
		return err
	}
	if err := worker.Start(ctx); err != nil {
		return err
	}

	app := fiber.New(fiber.Config{AppName: "cuemaster"})
	app.Use(middleware.RequestLogger(rt.logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(rt.cfg.HTTP.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.Setup(app, handlers.Services{
		Players:     services.NewPlayerService(rt.db, rt.logger),
		Tournaments: tournaments,
		Matches:     services.NewMatchService(rt.db, bus, metrics, rt.logger),
		Leaderboard: leaderboard,
		Matchmaking: services.NewMatchmakingService(rt.db, rt.logger),
		Metrics:     metrics,
		Snapshot:    worker.RunOnce,
	}, handlers.Options{
		GatewayToken: rt.cfg.HTTP.GatewayToken,
		Gatherer:     reg,
		Logger:       rt.logger,
	})

	go func() {
		if err := app.Listen(rt.cfg.HTTP.Addr); err != nil {
			rt.logger.Error("Server error", slog.Any("error", err))
			stop()
		}
	}()
	rt.logger.Info("Server running",
		slog.String("addr", rt.cfg.HTTP.Addr),
		slog.Any("allowed_origins", rt.cfg.HTTP.AllowedOrigins),
	)

	<-ctx.Done()
	rt.logger.Info("Shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}

package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cuemaster/middleware"
	"cuemaster/services"
)

// Services is everything the HTTP layer talks to.
type Services struct {
	Players     *services.PlayerService
	Tournaments *services.TournamentService
	Matches     *services.MatchService
	Leaderboard *services.LeaderboardService
	Matchmaking *services.MatchmakingService
	Metrics     *services.Metrics
	// Snapshot takes a leaderboard snapshot on demand; defaults to
	// Leaderboard.Snapshot.
	Snapshot func(ctx context.Context) (*services.Snapshot, error)
}

type Options struct {
	GatewayToken string
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

// Setup mounts every route on app. /healthz and /metrics stay outside the
// gateway check.
func Setup(app *fiber.App, svc Services, opts Options) {
	if svc.Snapshot == nil {
		svc.Snapshot = svc.Leaderboard.Snapshot
	}
	errs := errorWriter{metrics: svc.Metrics, logger: opts.Logger}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/", middleware.GatewayAuth(opts.GatewayToken, opts.Logger), middleware.UserContext())
	SetupPlayerRoutes(api, svc.Players, errs)
	SetupTournamentRoutes(api, svc.Tournaments, errs)
	SetupMatchRoutes(api, svc.Matches, errs)
	SetupLeaderboardRoutes(api, svc.Leaderboard, svc.Snapshot, errs)
	SetupMatchmakingRoutes(api, svc.Matchmaking, errs)
}

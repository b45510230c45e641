package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"cuemaster/services"
)

func SetupLeaderboardRoutes(r fiber.Router, lb *services.LeaderboardService, snapshot func(context.Context) (*services.Snapshot, error), errs errorWriter) {
	r.Get("/leaderboard", func(c *fiber.Ctx) error {
		rows, err := lb.Leaderboard(c.UserContext())
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(rows)
	})

	r.Get("/leaderboard/tiers", func(c *fiber.Ctx) error {
		k := c.QueryInt("k", lb.TierCount)
		tiers, err := lb.Tiers(c.UserContext(), k)
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(tiers)
	})

	r.Post("/leaderboard/snapshots", func(c *fiber.Ctx) error {
		snap, err := snapshot(c.UserContext())
		if err != nil {
			return errs.write(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	r.Get("/leaderboard/snapshots/latest", func(c *fiber.Ctx) error {
		snap, err := lb.LatestSnapshot(c.UserContext())
		if err != nil {
			return errs.write(c, err)
		}
		if snap == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no snapshot yet"})
		}
		return c.JSON(snap)
	})
}

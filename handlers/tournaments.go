package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cuemaster/models"
	"cuemaster/services"
)

func SetupTournamentRoutes(r fiber.Router, tournaments *services.TournamentService, errs errorWriter) {
	r.Post("/tournaments", func(c *fiber.Ctx) error {
		var in services.CreateTournamentInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		t, err := tournaments.CreateTournament(c.UserContext(), in)
		if err != nil {
			return errs.write(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	r.Get("/tournaments", func(c *fiber.Ctx) error {
		list, err := tournaments.ListTournaments(c.UserContext())
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(list)
	})

	r.Get("/tournaments/:id", func(c *fiber.Ctx) error {
		t, err := tournaments.GetTournament(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(t)
	})

	r.Post("/tournaments/:id/players", func(c *fiber.Ctx) error {
		var body struct {
			PlayerID string `json:"player_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c, err)
		}
		if body.PlayerID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player_id is required"})
		}
		entry, err := tournaments.RegisterPlayer(c.UserContext(), c.Params("id"), body.PlayerID)
		if err != nil {
			return errs.write(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	r.Delete("/tournaments/:id/players/:playerID", func(c *fiber.Ctx) error {
		if err := tournaments.UnregisterPlayer(c.UserContext(), c.Params("id"), c.Params("playerID")); err != nil {
			return errs.write(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/tournaments/:id/start", func(c *fiber.Ctx) error {
		t, err := tournaments.Start(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(t)
	})

	r.Post("/tournaments/:id/cancel", func(c *fiber.Ctx) error {
		t, err := tournaments.Cancel(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(t)
	})

	r.Post("/tournaments/:id/rounds/next", func(c *fiber.Ctx) error {
		res, err := tournaments.GenerateNextRound(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/tournaments/:id/matches", func(c *fiber.Ctx) error {
		var round models.Round
		if q := c.Query("round"); q != "" {
			parsed, err := models.ParseRound(q)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			round = parsed
		}
		matches, err := tournaments.ListMatches(c.UserContext(), c.Params("id"), round)
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(matches)
	})
}

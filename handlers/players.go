package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cuemaster/services"
)

func SetupPlayerRoutes(r fiber.Router, players *services.PlayerService, errs errorWriter) {
	r.Post("/players", func(c *fiber.Ctx) error {
		var in services.CreatePlayerInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		p, err := players.CreatePlayer(c.UserContext(), in)
		if err != nil {
			return errs.write(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Get("/players", func(c *fiber.Ctx) error {
		list, err := players.ListPlayers(c.UserContext())
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(list)
	})

	r.Get("/players/:id", func(c *fiber.Ctx) error {
		p, err := players.GetPlayer(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(p)
	})
}

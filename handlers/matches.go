package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cuemaster/services"
)

func SetupMatchRoutes(r fiber.Router, matches *services.MatchService, errs errorWriter) {
	r.Get("/matches/:id", func(c *fiber.Ctx) error {
		m, err := matches.GetMatch(c.UserContext(), c.Params("id"))
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(m)
	})

	r.Post("/matches/:id/winner", func(c *fiber.Ctx) error {
		var in services.DeclareWinnerInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		res, err := matches.DeclareWinner(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(res)
	})
}

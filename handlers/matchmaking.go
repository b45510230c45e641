package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cuemaster/services"
)

func SetupMatchmakingRoutes(r fiber.Router, mm *services.MatchmakingService, errs errorWriter) {
	r.Post("/matchmaking/open", func(c *fiber.Ctx) error {
		var in services.OpenPairingsInput
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badBody(c, err)
			}
		}
		res, err := mm.OpenPairings(c.UserContext(), in)
		if err != nil {
			return errs.write(c, err)
		}
		return c.JSON(res)
	})
}

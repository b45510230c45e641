package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const LocalUserID = "user_id"

// UserContext copies the user id forwarded by the gateway into c.Locals.
func UserContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, c.Get("X-User-ID"))
		return c.Next()
	}
}

// UserID returns the forwarded user id, or "" for anonymous calls.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/auth"
)

const localUserID = "user_id"

// JWTAuth verifies the bearer token and stores the authenticated user id in
// the request locals. Every protected handler reads the identity from there
// and passes it explicitly into the service calls.
func JWTAuth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "error": "missing authorization"})
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "error": "invalid authorization"})
		}
		userID, err := verifier.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "error": "invalid token"})
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals(localUserID).(string)
	return uid
}

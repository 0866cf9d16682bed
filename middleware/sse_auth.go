package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware authenticates event-stream requests. Browsers cannot set
// headers on an EventSource, so the session token may arrive as ?token=.
//
// Usage:
//
//	app.Get("/matches/:id/events", middleware.SSEAuthMiddleware(verifier), streamHandler)
func SSEAuthMiddleware(verifier *SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := strings.TrimSpace(c.Get("X-User-ID")); userID != "" {
			c.Locals(UserIDLocal, userID)
			return c.Next()
		}

		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = strings.TrimSpace(c.Get("X-Session-Token"))
		}
		if token == "" {
			log.Printf("[SSEAuth] ❌ No identity for %s", c.Path())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for token (prefix: %s...): %v",
				token[:min(10, len(token))], err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals(UserIDLocal, userID)
		log.Printf("[SSEAuth] ✅ Authenticated user %s", userID)
		return c.Next()
	}
}

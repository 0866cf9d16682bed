package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocal is the fiber.Locals key holding the caller identity.
const UserIDLocal = "user_id"

// UserContextMiddleware resolves the caller identity. The gateway forwards it
// as X-User-ID; direct web clients send a session JWT in X-Session-Token.
// Requests with neither are rejected.
func UserContextMiddleware(verifier *SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))

		if userID == "" {
			if token := strings.TrimSpace(c.Get("X-Session-Token")); token != "" {
				sub, err := verifier.Verify(token)
				if err != nil {
					log.Printf("❌ [USER_CTX] Session token rejected on %s: %v", c.Path(), err)
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
						"error": "invalid session token",
					})
				}
				userID = sub
			}
		}

		if userID == "" {
			log.Printf("❌ [USER_CTX] Caller identity missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		c.Locals(UserIDLocal, userID)
		log.Printf("👤 [USER_CTX] UserID=%s | %s %s", userID, c.Method(), c.Path())
		return c.Next()
	}
}

// UserID returns the identity stored by the auth middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}

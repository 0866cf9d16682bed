package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware admits only requests carrying the gateway's shared
// token, either as "Bearer <token>" (scheme is case-insensitive) or bare.
// An empty expected token admits nothing; config validation refuses to start
// without one.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	expected := []byte(expectedToken)

	return func(c *fiber.Ctx) error {
		token, ok := gatewayToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			log.Printf("🚫 [GATEWAY_AUTH] %s %s without gateway token", c.Method(), c.Path())
			return rejectGateway(c, "gateway authentication token missing")
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Printf("❌ [GATEWAY_AUTH] %s %s with wrong gateway token", c.Method(), c.Path())
			return rejectGateway(c, "invalid gateway authentication token")
		}

		return c.Next()
	}
}

// gatewayToken pulls the token out of an Authorization header value.
func gatewayToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		header = strings.TrimSpace(rest)
	}
	return header, header != ""
}

func rejectGateway(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  "unauthenticated",
	})
}

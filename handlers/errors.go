package handlers

import (
	"errors"
	"log"

	"battle-room-system/services"

	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrInvalidArgument, fiber.StatusBadRequest, "invalid_argument"},
	{services.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{services.ErrUnauthorized, fiber.StatusForbidden, "unauthorized"},
	{services.ErrInvalidState, fiber.StatusConflict, "invalid_state"},
	{services.ErrConflict, fiber.StatusConflict, "conflict"},
}

// writeError maps the match failure taxonomy onto HTTP. Anything outside it
// is an internal error and its detail stays in the log.
func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			log.Printf("[MATCH] %s %s rejected: %v", c.Method(), c.Path(), err)
			return c.Status(e.status).JSON(fiber.Map{
				"error": err.Error(),
				"code":  e.code,
			})
		}
	}

	log.Printf("[MATCH] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"code":  "internal",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"code":  "invalid_argument",
	})
}

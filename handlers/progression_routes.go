// handlers/progression_routes.go
package handlers

import (
	"battle-room-system/middleware"
	"battle-room-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressionRoutes serves the caller's battle progression.
func SetupProgressionRoutes(app *fiber.App, progressionService *services.ProgressionService, verifier *middleware.SessionVerifier) {
	secured := app.Group("/users/me", middleware.UserContextMiddleware(verifier))

	secured.Get("/progress", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		prog, err := progressionService.GetProgress(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB error fetching progress",
				"cause": err.Error(),
			})
		}

		nextLevelXP := services.XPToReach(prog.Level + 1)
		var winRate float64
		if prog.TotalMatches > 0 {
			winRate = float64(prog.Wins) / float64(prog.TotalMatches) * 100
		}

		return c.JSON(fiber.Map{
			"progress":         prog,
			"rank_name":        services.RankName(prog.Rank),
			"next_level_xp":    nextLevelXP,
			"xp_to_next_level": nextLevelXP - prog.TotalXP,
			"win_rate":         winRate,
		})
	})
}

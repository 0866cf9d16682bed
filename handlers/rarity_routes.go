package handlers

import (
	"battle-room-system/models"

	"github.com/gofiber/fiber/v2"
)

type rarityOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SetupRarityRoutes serves the wager rarity list. It needs no user context.
func SetupRarityRoutes(app *fiber.App) {
	options := make([]rarityOption, 0, len(models.ValidRarities))
	for _, r := range models.ValidRarities {
		options = append(options, rarityOption{ID: r, Name: models.RarityDisplayName(r)})
	}

	app.Get("/rarities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"rarities": options})
	})
}

package handlers

import (
	"time"

	"battle-room-system/middleware"
	"battle-room-system/models"
	"battle-room-system/services"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// MatchHandler exposes MatchService over HTTP.
type MatchHandler struct {
	Service      *services.MatchService
	PollInterval time.Duration
}

func NewMatchHandler(svc *services.MatchService, pollInterval time.Duration) *MatchHandler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &MatchHandler{Service: svc, PollInterval: pollInterval}
}

func SetupMatchRoutes(app *fiber.App, h *MatchHandler, verifier *middleware.SessionVerifier) {
	// Event streams authenticate from the query string, so they sit outside the secured group.
	app.Get("/matches/:id/events", middleware.SSEAuthMiddleware(verifier), h.StreamMatchEvents)

	secured := app.Group("/", middleware.UserContextMiddleware(verifier))

	secured.Post("/matches", h.CreateMatch)
	secured.Get("/matches/joinable", h.ListJoinable)
	secured.Get("/matches/:id", h.GetMatch)
	secured.Post("/matches/:id/join", h.JoinMatch)
	secured.Post("/matches/:id/ready", h.SetReady)
	secured.Post("/matches/:id/turn", h.AdvanceTurn)
	secured.Post("/matches/:id/end", h.EndMatch)

	secured.Get("/users/me/record", h.GetRecord)
}

func (h *MatchHandler) CreateMatch(c *fiber.Ctx) error {
	var in services.CreateMatchInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.CreatorID = middleware.UserID(c)

	m, err := h.Service.CreateMatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *MatchHandler) GetMatch(c *fiber.Ctx) error {
	m, err := h.Service.GetMatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(m)
}

func (h *MatchHandler) ListJoinable(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		return badRequest(c, "limit must be between 1 and 100")
	}

	filter := services.JoinableFilter{
		Visibility:  models.Visibility(c.Query("visibility")),
		WagerRarity: c.Query("wager_rarity"),
		Limit:       limit,
	}

	matches := make([]services.MatchSummary, 0, limit)
	for m, err := range h.Service.ListJoinable(c.UserContext(), filter) {
		if err != nil {
			return writeError(c, err)
		}
		matches = append(matches, services.Summarize(m))
	}

	return c.JSON(fiber.Map{
		"matches": matches,
		"count":   len(matches),
	})
}

func (h *MatchHandler) JoinMatch(c *fiber.Ctx) error {
	var in services.JoinMatchInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	in.MatchID = c.Params("id")
	in.OccupantID = middleware.UserID(c)

	m, err := h.Service.JoinMatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(m)
}

func (h *MatchHandler) SetReady(c *fiber.Ctx) error {
	m, err := h.Service.SetReady(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(m)
}

func (h *MatchHandler) AdvanceTurn(c *fiber.Ctx) error {
	m, err := h.Service.AdvanceTurn(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(m)
}

func (h *MatchHandler) EndMatch(c *fiber.Ctx) error {
	var in services.EndMatchInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.MatchID = c.Params("id")
	in.CallerID = middleware.UserID(c)

	m, err := h.Service.EndMatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(m)
}

func (h *MatchHandler) GetRecord(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	rec, err := h.Service.Record(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"user_id": userID,
		"played":  rec.Played,
		"won":     rec.Won,
	})
}

package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"battle-room-system/middleware"
	"battle-room-system/models"
	"battle-room-system/services"

	"github.com/gofiber/fiber/v2"
)

// StreamMatchEvents pushes the match projection every time its version moves.
// The stream polls the store, so any instance can serve any match. It closes
// after the finished projection has been sent.
func (h *MatchHandler) StreamMatchEvents(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	// Fail fast with a normal HTTP error for unknown matches.
	first, err := h.Service.GetMatch(c.UserContext(), matchID)
	if err != nil {
		return writeError(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// fiber recycles c once the handler returns; the writer only uses the
	// fasthttp request context captured here.
	reqCtx := c.Context()
	svc := h.Service
	interval := h.PollInterval

	reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
		log.Printf("[SSE] %s watching match %s", userID, matchID)
		defer log.Printf("[SSE] stream for match %s closed (%s)", matchID, userID)

		if !writeMatchEvent(w, first) || first.State == models.MatchStateFinished {
			return
		}
		lastVersion := first.Version

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m, err := svc.GetMatch(reqCtx, matchID)
				if err != nil {
					if errors.Is(err, services.ErrNotFound) {
						fmt.Fprintf(w, "event: error\ndata: {\"error\":%q}\n\n", err.Error())
						w.Flush()
						return
					}
					log.Printf("[SSE] poll error for match %s: %v", matchID, err)
					continue
				}

				if m.Version == lastVersion {
					// keepalive comment; a failed flush means the client left
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
					continue
				}
				lastVersion = m.Version

				if !writeMatchEvent(w, m) || m.State == models.MatchStateFinished {
					return
				}

			case <-reqCtx.Done():
				return
			}
		}
	})

	return nil
}

func writeMatchEvent(w *bufio.Writer, m models.Match) bool {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Printf("[SSE] encode match %s: %v", m.ID, err)
		return false
	}
	fmt.Fprintf(w, "id: %d\nevent: match\ndata: %s\n\n", m.Version, payload)
	return w.Flush() == nil
}

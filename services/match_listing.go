package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"battle-room-system/models"
	"battle-room-system/repository"
)

const defaultListPageSize = 50

// JoinableFilter narrows the room list. Limit 0 means no limit.
type JoinableFilter struct {
	Visibility  models.Visibility
	WagerRarity string
	Limit       int
}

// MatchSummary is the lightweight room-list entry.
type MatchSummary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Visibility  models.Visibility `json:"visibility"`
	State       models.MatchState `json:"state"`
	Players     int               `json:"players"`
	MaxPlayers  int               `json:"max_players"`
	CreatorID   string            `json:"creator_id"`
	WagerRarity string            `json:"wager_rarity,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func Summarize(m models.Match) MatchSummary {
	return MatchSummary{
		ID:          m.ID,
		Name:        m.Name,
		Visibility:  m.Visibility,
		State:       m.State,
		Players:     m.Players,
		MaxPlayers:  models.MaxParticipants,
		CreatorID:   m.CreatorID,
		WagerRarity: m.WagerRarity,
		CreatedAt:   m.CreatedAt,
	}
}

// ListJoinable returns the joinable rooms, newest first, as a lazy sequence.
// Pages are fetched from the repository only as the caller iterates, and each
// range over the sequence starts again from the newest room.
func (s *MatchService) ListJoinable(ctx context.Context, f JoinableFilter) iter.Seq2[models.Match, error] {
	return func(yield func(models.Match, error) bool) {
		if f.Visibility != "" && !f.Visibility.Valid() {
			yield(models.Match{}, fmt.Errorf("%w: unknown visibility %q", ErrInvalidArgument, f.Visibility))
			return
		}
		if f.WagerRarity != "" && !models.IsValidRarity(f.WagerRarity) {
			yield(models.Match{}, fmt.Errorf("%w: unknown wager rarity %q", ErrInvalidArgument, f.WagerRarity))
			return
		}

		pageSize := s.Config.ListPageSize
		if pageSize <= 0 {
			pageSize = defaultListPageSize
		}
		emitted := 0
		var after *repository.Cursor
		for {
			if f.Limit > 0 && f.Limit-emitted < pageSize {
				pageSize = f.Limit - emitted
			}
			page, err := s.Repo.ListJoinable(ctx, repository.JoinableQuery{
				Visibility:  f.Visibility,
				WagerRarity: f.WagerRarity,
				After:       after,
				Limit:       pageSize,
			})
			if err != nil {
				yield(models.Match{}, err)
				return
			}

			for _, m := range page {
				if !yield(m, nil) {
					return
				}
				emitted++
			}
			if len(page) == 0 || len(page) < pageSize || (f.Limit > 0 && emitted >= f.Limit) {
				return
			}
			cursor := repository.CursorOf(page[len(page)-1])
			after = &cursor
		}
	}
}

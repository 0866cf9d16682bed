package repository

import (
	"context"
	"errors"
	"time"

	"battle-room-system/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("duplicate id")
	// ErrStaleWrite means the row changed since it was loaded.
	ErrStaleWrite = errors.New("stale write")
)

// MatchRepository persists match projections with optimistic concurrency.
//
// Save writes m only if the stored version still equals m.Version, then bumps
// m.Version. A lost race returns ErrStaleWrite and leaves the row untouched.
type MatchRepository interface {
	Load(ctx context.Context, id string) (models.Match, error)
	Insert(ctx context.Context, m *models.Match) error
	Save(ctx context.Context, m *models.Match) error
	ListJoinable(ctx context.Context, q JoinableQuery) ([]models.Match, error)
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]models.Match, error)
	CountRecord(ctx context.Context, userID string) (Record, error)
}

// Cursor is a keyset position in the (created_at DESC, id DESC) ordering.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func CursorOf(m models.Match) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// JoinableQuery selects one page of joinable matches, newest first.
type JoinableQuery struct {
	Visibility  models.Visibility
	WagerRarity string
	After       *Cursor
	Limit       int
}

// Record is a user's finished-match tally.
type Record struct {
	Played int64 `json:"played"`
	Won    int64 `json:"won"`
}

var joinableStates = []models.MatchState{models.MatchStateOpen, models.MatchStateReadyPending}

var pendingStates = []models.MatchState{models.MatchStateOpen, models.MatchStateReadyPending}

// before reports whether m comes after the cursor in the listing order.
func (c Cursor) before(m models.Match) bool {
	if m.CreatedAt.Equal(c.CreatedAt) {
		return m.ID < c.ID
	}
	return m.CreatedAt.Before(c.CreatedAt)
}

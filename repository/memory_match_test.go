package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"battle-room-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMatch(id string, createdAt time.Time) *models.Match {
	return &models.Match{
		ID:         id,
		Name:       id,
		Visibility: models.VisibilityPublic,
		CreatorID:  "alice",
		Slot1:      models.Slot{OccupantID: "alice"},
		Players:    1,
		State:      models.MatchStateOpen,
		Timestamps: models.Timestamps{CreatedAt: createdAt},
	}
}

func TestMemoryInsertAndLoad(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()

	m := openMatch("room1", time.Now())
	require.NoError(t, repo.Insert(ctx, m))
	assert.Equal(t, int64(1), m.Version)

	got, err := repo.Load(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Slot1.OccupantID)

	assert.ErrorIs(t, repo.Insert(ctx, openMatch("room1", time.Now())), ErrDuplicateID)

	_, err = repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, openMatch("room1", time.Now())))

	got, err := repo.Load(ctx, "room1")
	require.NoError(t, err)
	got.Slot2.OccupantID = "mallory"

	again, err := repo.Load(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, again.Slot2.OccupantID)
}

func TestMemorySaveRejectsStaleVersion(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, openMatch("room1", time.Now())))

	first, _ := repo.Load(ctx, "room1")
	second, _ := repo.Load(ctx, "room1")

	first.Slot2.OccupantID = "bob"
	first.Players = 2
	require.NoError(t, repo.Save(ctx, &first))
	assert.Equal(t, int64(2), first.Version)

	second.Slot2.OccupantID = "carol"
	second.Players = 2
	assert.ErrorIs(t, repo.Save(ctx, &second), ErrStaleWrite)
	assert.Equal(t, int64(1), second.Version, "failed save must not bump the version")

	stored, _ := repo.Load(ctx, "room1")
	assert.Equal(t, "bob", stored.Slot2.OccupantID)
}

func TestMemorySaveUnknownMatch(t *testing.T) {
	repo := NewMemoryMatchRepository()
	assert.ErrorIs(t, repo.Save(context.Background(), openMatch("ghost", time.Now())), ErrStaleWrite)
}

func TestMemoryListJoinableOrderingAndCursor(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, openMatch(fmt.Sprintf("room%d", i), base.Add(time.Duration(i)*time.Minute))))
	}
	full := openMatch("full", base.Add(time.Hour))
	full.Slot2.OccupantID = "bob"
	full.Players = 2
	full.State = models.MatchStateReadyPending
	require.NoError(t, repo.Insert(ctx, full))

	page, err := repo.ListJoinable(ctx, JoinableQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "room4", page[0].ID)
	assert.Equal(t, "room3", page[1].ID)

	cursor := CursorOf(page[1])
	page, err = repo.ListJoinable(ctx, JoinableQuery{Limit: 10, After: &cursor})
	require.NoError(t, err)
	ids := make([]string, 0, len(page))
	for _, m := range page {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"room2", "room1", "room0"}, ids)
}

func TestMemoryListJoinableFilters(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()
	now := time.Now()

	pub := openMatch("pub", now)
	pub.WagerRarity = "rare"
	require.NoError(t, repo.Insert(ctx, pub))

	priv := openMatch("priv", now.Add(time.Second))
	priv.Visibility = models.VisibilityPrivate
	require.NoError(t, repo.Insert(ctx, priv))

	page, err := repo.ListJoinable(ctx, JoinableQuery{Visibility: models.VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "priv", page[0].ID)

	page, err = repo.ListJoinable(ctx, JoinableQuery{WagerRarity: "rare"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "pub", page[0].ID)
}

func TestMemoryListStaleAndRecord(t *testing.T) {
	repo := NewMemoryMatchRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, openMatch("old", now.Add(-2*time.Hour))))
	require.NoError(t, repo.Insert(ctx, openMatch("fresh", now)))

	done := openMatch("done", now.Add(-3*time.Hour))
	done.Slot2.OccupantID = "bob"
	done.Players = 2
	done.State = models.MatchStateFinished
	done.WinnerID = "bob"
	require.NoError(t, repo.Insert(ctx, done))

	stale, err := repo.ListStale(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)

	rec, err := repo.CountRecord(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, Record{Played: 1, Won: 1}, rec)

	rec, err = repo.CountRecord(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Record{Played: 1, Won: 0}, rec)
}

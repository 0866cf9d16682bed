package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"battle-room-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Integration tests: they run only against a real Postgres.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("MATCH_TEST_DSN")
	if dsn == "" {
		t.Skip("MATCH_TEST_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Match{}, &models.Deck{}, &models.DeckCard{}))
	return db
}

func TestGormMatchVersionedSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormMatchRepository(db)
	ctx := context.Background()

	id := "it-" + uuid.NewString()
	t.Cleanup(func() { db.Unscoped().Delete(&models.Match{}, "id = ?", id) })

	require.NoError(t, repo.Insert(ctx, openMatch(id, time.Now())))
	assert.ErrorIs(t, repo.Insert(ctx, openMatch(id, time.Now())), ErrDuplicateID)

	first, err := repo.Load(ctx, id)
	require.NoError(t, err)
	second, err := repo.Load(ctx, id)
	require.NoError(t, err)

	first.Slot2.OccupantID = "bob"
	first.Players = 2
	first.State = models.MatchStateReadyPending
	require.NoError(t, repo.Save(ctx, &first))

	second.Slot2.OccupantID = "carol"
	second.Players = 2
	assert.ErrorIs(t, repo.Save(ctx, &second), ErrStaleWrite)

	stored, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Slot2.OccupantID)
	assert.Equal(t, int64(2), stored.Version)
	assert.False(t, stored.Slot2.Ready)
}

func TestGormMatchLoadNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := NewGormMatchRepository(db).Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormDeckOrdered(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormDeckRepository(db)
	ctx := context.Background()

	userID := uuid.NewString()
	deck := models.Deck{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "starter",
		Cards: []models.DeckCard{
			{ID: uuid.NewString(), TokenID: "25", Position: 1},
			{ID: uuid.NewString(), TokenID: "4", Position: 0},
		},
	}
	require.NoError(t, db.Create(&deck).Error)
	t.Cleanup(func() {
		db.Unscoped().Delete(&models.DeckCard{}, "deck_id = ?", deck.ID)
		db.Unscoped().Delete(&models.Deck{}, "id = ?", deck.ID)
	})

	cards, err := repo.GetDeck(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "25"}, cards)

	_, err = repo.GetDeck(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

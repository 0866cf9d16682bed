package repository

import (
	"context"
	"errors"

	"battle-room-system/models"

	"gorm.io/gorm"
)

// GormDeckRepository reads decks owned by the card-collection side of the app.
type GormDeckRepository struct {
	DB *gorm.DB
}

func NewGormDeckRepository(db *gorm.DB) *GormDeckRepository {
	return &GormDeckRepository{DB: db}
}

// GetDeck returns the ordered card token ids of a user's deck. An empty
// deckID picks the user's most recently updated deck.
func (r *GormDeckRepository) GetDeck(ctx context.Context, userID, deckID string) ([]string, error) {
	db := r.DB.WithContext(ctx).
		Preload("Cards", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("user_id = ?", userID)
	if deckID != "" {
		db = db.Where("id = ?", deckID)
	}

	var deck models.Deck
	if err := db.Order("updated_at DESC").First(&deck).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cards := make([]string, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		cards = append(cards, c.TokenID)
	}
	return cards, nil
}

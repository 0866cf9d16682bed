package models

// Deck is a user's saved battle deck. The match engine only reads it.
type Deck struct {
	ID     string     `gorm:"primaryKey" json:"id"`
	UserID string     `gorm:"index;not null" json:"user_id"`
	Name   string     `json:"name"`
	Cards  []DeckCard `gorm:"foreignKey:DeckID" json:"cards"`

	Timestamps
}

// DeckCard is one card slot in a deck; Position keeps the deck ordered.
type DeckCard struct {
	ID       string `gorm:"primaryKey" json:"id"`
	DeckID   string `gorm:"index;not null" json:"deck_id"`
	TokenID  string `gorm:"not null" json:"token_id"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Position int    `gorm:"default:0" json:"position"`
}

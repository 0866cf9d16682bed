package models

import "time"

// UserProgress tracks battle progression for each user (denormalized for performance)
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	Level   int   `json:"level" gorm:"default:1"`
	Rank    int   `json:"rank" gorm:"default:1"`

	// Battle counters
	TotalMatches int64 `json:"total_matches" gorm:"default:0"`
	Wins         int64 `json:"wins" gorm:"default:0"`
	Losses       int64 `json:"losses" gorm:"default:0"`
	WinStreak    int   `json:"win_streak" gorm:"default:0"`
	BestStreak   int   `json:"best_streak" gorm:"default:0"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`
	LastRankUpAt  *time.Time `json:"last_rank_up_at,omitempty"`

	Timestamps
}

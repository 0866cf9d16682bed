package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"battle-room-system/models"

	"gorm.io/gorm"
)

// GormMatchRepository stores matches in Postgres through the shared *gorm.DB pool.
type GormMatchRepository struct {
	DB *gorm.DB
}

func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	return &GormMatchRepository{DB: db}
}

func (r *GormMatchRepository) Load(ctx context.Context, id string) (models.Match, error) {
	var m models.Match
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Match{}, ErrNotFound
		}
		return models.Match{}, err
	}
	return m, nil
}

func (r *GormMatchRepository) Insert(ctx context.Context, m *models.Match) error {
	if m.Version == 0 {
		m.Version = 1
	}
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		// Requires gorm.Config{TranslateError: true}.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// Save is a conditional UPDATE ... WHERE id = ? AND version = ?.
func (r *GormMatchRepository) Save(ctx context.Context, m *models.Match) error {
	now := time.Now()
	updates := matchColumns(m)
	updates["version"] = m.Version + 1
	updates["updated_at"] = now

	result := r.DB.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}

	m.Version++
	m.UpdatedAt = now
	return nil
}

func (r *GormMatchRepository) ListJoinable(ctx context.Context, q JoinableQuery) ([]models.Match, error) {
	db := r.DB.WithContext(ctx).
		Where("state IN ? AND players < ?", joinableStates, models.MaxParticipants)

	if q.Visibility != "" {
		db = db.Where("visibility = ?", q.Visibility)
	}
	if q.WagerRarity != "" {
		db = db.Where("wager_rarity = ?", q.WagerRarity)
	}
	if q.After != nil {
		db = db.Where("((created_at < ?) OR (created_at = ? AND id < ?))",
			q.After.CreatedAt, q.After.CreatedAt, q.After.ID)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var matches []models.Match
	if err := db.Order("created_at DESC").Order("id DESC").Find(&matches).Error; err != nil {
		log.Printf("[MATCH] DB error listing joinable matches: %v", err)
		return nil, err
	}
	return matches, nil
}

func (r *GormMatchRepository) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]models.Match, error) {
	db := r.DB.WithContext(ctx).
		Where("state IN ? AND created_at < ?", pendingStates, createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var matches []models.Match
	if err := db.Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *GormMatchRepository) CountRecord(ctx context.Context, userID string) (Record, error) {
	var rec Record
	base := r.DB.WithContext(ctx).Model(&models.Match{}).
		Where("state = ?", models.MatchStateFinished).
		Session(&gorm.Session{})

	if err := base.
		Where("(slot1_occupant_id = ? OR slot2_occupant_id = ?)", userID, userID).
		Count(&rec.Played).Error; err != nil {
		return Record{}, err
	}
	if err := base.
		Where("winner_id = ?", userID).
		Count(&rec.Won).Error; err != nil {
		return Record{}, err
	}
	return rec, nil
}

// matchColumns lists every mutable column. A map keeps zero values
// (false ready flags, empty winner) in the UPDATE.
func matchColumns(m *models.Match) map[string]interface{} {
	return map[string]interface{}{
		"name":              m.Name,
		"visibility":        m.Visibility,
		"secret_hash":       m.SecretHash,
		"creator_id":        m.CreatorID,
		"wager_rarity":      m.WagerRarity,
		"slot1_occupant_id": m.Slot1.OccupantID,
		"slot1_ready":       m.Slot1.Ready,
		"slot1_deck_id":     m.Slot1.DeckID,
		"slot1_avatar":      m.Slot1.Avatar,
		"slot2_occupant_id": m.Slot2.OccupantID,
		"slot2_ready":       m.Slot2.Ready,
		"slot2_deck_id":     m.Slot2.DeckID,
		"slot2_avatar":      m.Slot2.Avatar,
		"players":           m.Players,
		"state":             m.State,
		"current_turn":      m.CurrentTurn,
		"turn_number":       m.TurnNumber,
		"winner_id":         m.WinnerID,
		"outcome":           m.Outcome,
		"started_at":        m.StartedAt,
		"finished_at":       m.FinishedAt,
	}
}

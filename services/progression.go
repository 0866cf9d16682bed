package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"battle-room-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPWeights define relative battle rewards.
type XPWeights struct {
	ParticipationXP int64
	WinXP           int64
	QuickWinTurns   int     // wins before this turn number earn the bonus
	QuickWinFactor  float64 // multiplier on WinXP
}

var DefaultXPWeights = XPWeights{
	ParticipationXP: 5,
	WinXP:           150,
	QuickWinTurns:   10,
	QuickWinFactor:  1.1,
}

// BaseXPPerLevel scales the level curve: level n → n+1 needs floor(BaseXPPerLevel * n^1.2).
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// XPToReach returns the total XP at which a player reaches level.
func XPToReach(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		total += xpForNextLevel(l)
	}
	return total
}

// RankThresholds: rank → min level
var RankThresholds = map[int]int{
	1: 1,   // Rookie (start)
	2: 5,   // Bronze
	3: 10,  // Silver
	4: 25,  // Gold
	5: 50,  // Platinum
	6: 100, // Diamond
}

func determineRank(level int) int {
	for rank := len(RankThresholds); rank >= 1; rank-- {
		if level >= RankThresholds[rank] {
			return rank
		}
	}
	return 1
}

func RankName(rank int) string {
	switch rank {
	case 1:
		return "Rookie"
	case 2:
		return "Bronze"
	case 3:
		return "Silver"
	case 4:
		return "Gold"
	case 5:
		return "Platinum"
	case 6:
		return "Diamond"
	default:
		if rank > 6 {
			return "Legend"
		}
		return "Rookie"
	}
}

// BattleXP is the XP a player earns from a finished match.
func BattleXP(m models.Match, won bool, w XPWeights) int64 {
	if !won {
		return w.ParticipationXP
	}
	xp := w.WinXP
	if m.Outcome == models.OutcomeWin && m.TurnNumber > 0 && m.TurnNumber < w.QuickWinTurns {
		xp = int64(math.Floor(float64(xp) * w.QuickWinFactor))
	}
	return xp
}

// applyBattle folds one result into prog: counters, streaks, XP, level and rank.
func applyBattle(prog *models.UserProgress, won bool, xp int64, now time.Time) {
	prog.TotalMatches++
	if won {
		prog.Wins++
		prog.WinStreak++
		if prog.WinStreak > prog.BestStreak {
			prog.BestStreak = prog.WinStreak
		}
	} else {
		prog.Losses++
		prog.WinStreak = 0
	}

	if prog.Level < 1 {
		prog.Level = 1
	}
	oldRank := prog.Rank
	prog.TotalXP += xp

	for prog.TotalXP >= XPToReach(prog.Level+1) {
		prog.Level++
		prog.LastLevelUpAt = &now
	}

	if newRank := determineRank(prog.Level); newRank > oldRank {
		prog.Rank = newRank
		prog.LastRankUpAt = &now
	}
}

// ProgressionService keeps per-user battle progression in Postgres.
type ProgressionService struct {
	DB      *gorm.DB
	Weights XPWeights
	Now     func() time.Time
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db, Weights: DefaultXPWeights, Now: time.Now}
}

// GetProgress returns the user's progression, creating the row on first use.
func (s *ProgressionService) GetProgress(ctx context.Context, externalUserID string) (models.UserProgress, error) {
	if err := s.ensureProgressRecord(s.DB.WithContext(ctx), externalUserID); err != nil {
		return models.UserProgress{}, err
	}
	var prog models.UserProgress
	if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return models.UserProgress{}, err
	}
	return prog, nil
}

// RecordResult credits both seated players of a finished match. Abandoned
// matches were never played and earn nothing.
func (s *ProgressionService) RecordResult(ctx context.Context, m models.Match) error {
	if m.State != models.MatchStateFinished || m.Outcome == models.OutcomeAbandoned {
		return nil
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, slot := range []models.Slot{m.Slot1, m.Slot2} {
			if !slot.Occupied() {
				continue
			}
			won := slot.OccupantID == m.WinnerID
			xp := BattleXP(m, won, s.Weights)
			if err := s.award(tx, slot.OccupantID, won, xp); err != nil {
				return fmt.Errorf("record result for %s: %w", slot.OccupantID, err)
			}
		}
		return nil
	})
}

func (s *ProgressionService) award(tx *gorm.DB, externalUserID string, won bool, xp int64) error {
	if err := s.ensureProgressRecord(tx, externalUserID); err != nil {
		return err
	}

	var prog models.UserProgress
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", externalUserID).
		First(&prog).Error; err != nil {
		return err
	}

	applyBattle(&prog, won, xp, s.Now())
	if err := tx.Save(&prog).Error; err != nil {
		return err
	}

	log.Printf("🎮 XP Awarded: %s → XP=%d, Lvl=%d, Rank=%s, streak=%d", externalUserID, prog.TotalXP, prog.Level, RankName(prog.Rank), prog.WinStreak)
	return nil
}

// ensureProgressRecord inserts a fresh row unless one exists (idempotent)
func (s *ProgressionService) ensureProgressRecord(db *gorm.DB, externalUserID string) error {
	prog := models.UserProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Level:          1,
		Rank:           1,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&prog).Error
}

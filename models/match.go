// models/match.go
package models

import "time"

// MatchState is the lifecycle position of a Match. States only move forward:
// open → ready_pending → in_progress → finished.
type MatchState string

const (
	MatchStateOpen         MatchState = "open"
	MatchStateReadyPending MatchState = "ready_pending"
	MatchStateInProgress   MatchState = "in_progress"
	MatchStateFinished     MatchState = "finished"
)

// Rank orders states along the lifecycle graph. Unknown states rank 0.
func (s MatchState) Rank() int {
	switch s {
	case MatchStateOpen:
		return 1
	case MatchStateReadyPending:
		return 2
	case MatchStateInProgress:
		return 3
	case MatchStateFinished:
		return 4
	default:
		return 0
	}
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Outcome describes how a finished match ended.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeForfeit   Outcome = "forfeit"
	OutcomeAbandoned Outcome = "abandoned"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeForfeit || o == OutcomeAbandoned
}

// AbandonedWinner is recorded as the winner of matches closed by the reaper.
const AbandonedWinner = "abandoned"

// MaxParticipants is fixed: every match has exactly two seats.
const MaxParticipants = 2

type SlotLabel string

const (
	SlotOne SlotLabel = "slot-1"
	SlotTwo SlotLabel = "slot-2"
)

// Slot is one of the two seats in a match.
type Slot struct {
	OccupantID string `json:"occupant_id,omitempty"`
	Ready      bool   `json:"ready"`
	DeckID     string `json:"deck_id,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

func (s Slot) Occupied() bool { return s.OccupantID != "" }

// Match is the durable projection of a two-player battle room.
type Match struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Visibility  Visibility `gorm:"type:varchar(16);not null;index" json:"visibility"`
	SecretHash  string     `json:"-"`
	CreatorID   string     `gorm:"index;not null" json:"creator_id"`
	WagerRarity string     `gorm:"type:varchar(32);index" json:"wager_rarity,omitempty"`

	Slot1 Slot `gorm:"embedded;embeddedPrefix:slot1_" json:"slot_1"`
	Slot2 Slot `gorm:"embedded;embeddedPrefix:slot2_" json:"slot_2"`

	Players int        `gorm:"not null;default:0;check:players BETWEEN 0 AND 2" json:"players"`
	State   MatchState `gorm:"type:varchar(16);not null;index" json:"state"`

	// Turn tracking, only meaningful while in progress.
	CurrentTurn SlotLabel `gorm:"type:varchar(8)" json:"current_turn,omitempty"`
	TurnNumber  int       `gorm:"default:0" json:"turn_number"`

	WinnerID   string     `gorm:"index" json:"winner_id,omitempty"`
	Outcome    Outcome    `gorm:"type:varchar(16)" json:"outcome,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Version guards every write (compare-and-swap in the repository).
	Version int64 `gorm:"not null;default:1" json:"version"`

	Timestamps
}

// Slot returns a pointer to the seat with the given label.
func (m *Match) Slot(label SlotLabel) *Slot {
	switch label {
	case SlotOne:
		return &m.Slot1
	case SlotTwo:
		return &m.Slot2
	default:
		return nil
	}
}

// SlotOf returns the label of the seat held by userID, or "" if none.
func (m *Match) SlotOf(userID string) SlotLabel {
	if userID == "" {
		return ""
	}
	switch userID {
	case m.Slot1.OccupantID:
		return SlotOne
	case m.Slot2.OccupantID:
		return SlotTwo
	}
	return ""
}

// EmptySlot returns the first unoccupied seat, or "" when the match is full.
func (m *Match) EmptySlot() SlotLabel {
	if !m.Slot1.Occupied() {
		return SlotOne
	}
	if !m.Slot2.Occupied() {
		return SlotTwo
	}
	return ""
}

func (m *Match) BothReady() bool {
	return m.Slot1.Occupied() && m.Slot2.Occupied() && m.Slot1.Ready && m.Slot2.Ready
}

func (m *Match) Opponent(label SlotLabel) SlotLabel {
	if label == SlotOne {
		return SlotTwo
	}
	return SlotOne
}

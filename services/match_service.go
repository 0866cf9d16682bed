package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"battle-room-system/models"
	"battle-room-system/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

// DeckProvider returns the ordered card ids of a user's deck.
// An empty deckID means the user's default deck.
type DeckProvider interface {
	GetDeck(ctx context.Context, userID, deckID string) ([]string, error)
}

// MatchArchiver receives every match the moment it finishes.
type MatchArchiver interface {
	ArchiveMatch(ctx context.Context, m models.Match) error
}

// ResultRecorder credits players once a match finishes.
type ResultRecorder interface {
	RecordResult(ctx context.Context, m models.Match) error
}

type MatchServiceConfig struct {
	SecretHashCost int
	MinDeckSize    int
	ListPageSize   int
}

// MatchService is the match lifecycle engine. It keeps no state between calls:
// every operation loads the match, validates the transition and writes it back
// with a version check.
type MatchService struct {
	Repo     repository.MatchRepository
	Decks    DeckProvider
	Archiver MatchArchiver
	Progress ResultRecorder
	Config   MatchServiceConfig
	Now      func() time.Time
}

func NewMatchService(repo repository.MatchRepository, decks DeckProvider, archiver MatchArchiver, cfg MatchServiceConfig) *MatchService {
	if cfg.SecretHashCost == 0 {
		cfg.SecretHashCost = bcrypt.DefaultCost
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = defaultListPageSize
	}
	return &MatchService{
		Repo:     repo,
		Decks:    decks,
		Archiver: archiver,
		Config:   cfg,
		Now:      time.Now,
	}
}

type CreateMatchInput struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Visibility  models.Visibility `json:"visibility"`
	Secret      string            `json:"secret"`
	CreatorID   string            `json:"-"`
	WagerRarity string            `json:"wager_rarity"`
	DeckID      string            `json:"deck_id"`
	Avatar      string            `json:"avatar"`
}

type JoinMatchInput struct {
	MatchID    string `json:"-"`
	OccupantID string `json:"-"`
	Secret     string `json:"secret"`
	DeckID     string `json:"deck_id"`
	Avatar     string `json:"avatar"`
}

type EndMatchInput struct {
	MatchID  string         `json:"-"`
	CallerID string         `json:"-"`
	WinnerID string         `json:"winner_id"`
	Outcome  models.Outcome `json:"outcome"`
}

const (
	maxNameLength    = 80
	maxIDLength      = 64
	maxSecretLength  = 72 // bcrypt input limit
	generatedSlugLen = 40
)

// CreateMatch opens a new room with the creator seated in slot-1.
func (s *MatchService) CreateMatch(ctx context.Context, in CreateMatchInput) (models.Match, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}

	switch {
	case in.CreatorID == "":
		return models.Match{}, fmt.Errorf("%w: creator identity is required", ErrInvalidArgument)
	case in.Name == "":
		return models.Match{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		return models.Match{}, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidArgument, maxNameLength)
	case !in.Visibility.Valid():
		return models.Match{}, fmt.Errorf("%w: visibility must be public or private", ErrInvalidArgument)
	case in.Visibility == models.VisibilityPrivate && in.Secret == "":
		return models.Match{}, fmt.Errorf("%w: private rooms require a secret", ErrInvalidArgument)
	case in.Visibility == models.VisibilityPublic && in.Secret != "":
		return models.Match{}, fmt.Errorf("%w: public rooms cannot have a secret", ErrInvalidArgument)
	case len(in.Secret) > maxSecretLength:
		return models.Match{}, fmt.Errorf("%w: secret must be at most %d bytes", ErrInvalidArgument, maxSecretLength)
	case in.WagerRarity != "" && !models.IsValidRarity(in.WagerRarity):
		return models.Match{}, fmt.Errorf("%w: unknown wager rarity %q", ErrInvalidArgument, in.WagerRarity)
	case in.ID != "" && (len(in.ID) > maxIDLength || !slug.IsSlug(in.ID)):
		return models.Match{}, fmt.Errorf("%w: id must be a lowercase slug of at most %d characters", ErrInvalidArgument, maxIDLength)
	}

	id := in.ID
	if id == "" {
		id = newMatchID(in.Name)
	}

	m := models.Match{
		ID:          id,
		Name:        in.Name,
		Visibility:  in.Visibility,
		CreatorID:   in.CreatorID,
		WagerRarity: in.WagerRarity,
		Slot1: models.Slot{
			OccupantID: in.CreatorID,
			DeckID:     in.DeckID,
			Avatar:     in.Avatar,
		},
		Players:    1,
		State:      models.MatchStateOpen,
		Version:    1,
		Timestamps: models.Timestamps{CreatedAt: s.Now()},
	}

	if in.Visibility == models.VisibilityPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Secret), s.Config.SecretHashCost)
		if err != nil {
			return models.Match{}, fmt.Errorf("hash room secret: %w", err)
		}
		m.SecretHash = string(hash)
	}

	if err := s.Repo.Insert(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return models.Match{}, fmt.Errorf("%w: match %q already exists", ErrConflict, id)
		}
		return models.Match{}, err
	}

	log.Printf("[MATCH] %s created by %s (%s)", m.ID, m.CreatorID, m.Visibility)
	return m, nil
}

// GetMatch returns the current projection of a match.
func (s *MatchService) GetMatch(ctx context.Context, id string) (models.Match, error) {
	m, err := s.Repo.Load(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Match{}, fmt.Errorf("%w: match %q", ErrNotFound, id)
		}
		return models.Match{}, err
	}
	return m, nil
}

// JoinMatch seats the caller in the empty slot. Filling the second seat moves
// the match to ready_pending.
func (s *MatchService) JoinMatch(ctx context.Context, in JoinMatchInput) (models.Match, error) {
	if in.OccupantID == "" {
		return models.Match{}, fmt.Errorf("%w: occupant identity is required", ErrInvalidArgument)
	}

	return s.mutate(ctx, in.MatchID, func(m *models.Match) (bool, error) {
		if m.State != models.MatchStateOpen {
			return false, fmt.Errorf("%w: match is %s", ErrInvalidState, m.State)
		}
		label := m.EmptySlot()
		if label == "" {
			return false, fmt.Errorf("%w: match is full", ErrInvalidState)
		}
		if isParticipant(m, in.OccupantID) {
			return false, fmt.Errorf("%w: already seated in this match", ErrInvalidState)
		}
		if !secretMatches(m, in.Secret) {
			return false, fmt.Errorf("%w: wrong room secret", ErrUnauthorized)
		}

		*m.Slot(label) = models.Slot{
			OccupantID: in.OccupantID,
			DeckID:     in.DeckID,
			Avatar:     in.Avatar,
		}
		m.Players++
		if m.EmptySlot() == "" {
			m.State = models.MatchStateReadyPending
		}
		return true, nil
	})
}

// SetReady marks the caller's seat ready. The second ready flag starts the
// match once both decks check out; slot-1 takes the first turn.
func (s *MatchService) SetReady(ctx context.Context, matchID, occupantID string) (models.Match, error) {
	return s.mutate(ctx, matchID, func(m *models.Match) (bool, error) {
		label := m.SlotOf(occupantID)
		if label == "" {
			return false, fmt.Errorf("%w: caller holds no seat in this match", ErrUnauthorized)
		}

		switch m.State {
		case models.MatchStateInProgress:
			return false, nil
		case models.MatchStateReadyPending:
		default:
			return false, fmt.Errorf("%w: cannot ready up while match is %s", ErrInvalidState, m.State)
		}

		slot := m.Slot(label)
		if slot.Ready {
			return false, nil
		}
		slot.Ready = true

		if m.BothReady() {
			if err := s.checkDecks(ctx, m); err != nil {
				return false, err
			}
			now := s.Now()
			m.State = models.MatchStateInProgress
			m.StartedAt = &now
			m.CurrentTurn = models.SlotOne
			m.TurnNumber = 1
		}
		return true, nil
	})
}

// AdvanceTurn hands the turn to the opponent. Only the player whose turn it
// is may pass it on.
func (s *MatchService) AdvanceTurn(ctx context.Context, matchID, occupantID string) (models.Match, error) {
	return s.mutate(ctx, matchID, func(m *models.Match) (bool, error) {
		label := m.SlotOf(occupantID)
		if label == "" {
			return false, fmt.Errorf("%w: caller holds no seat in this match", ErrUnauthorized)
		}
		if m.State != models.MatchStateInProgress {
			return false, fmt.Errorf("%w: match is %s", ErrInvalidState, m.State)
		}
		if m.CurrentTurn != label {
			return false, fmt.Errorf("%w: it is %s's turn", ErrUnauthorized, m.CurrentTurn)
		}

		m.CurrentTurn = m.Opponent(label)
		m.TurnNumber++
		return true, nil
	})
}

// EndMatch records the result. Both seats must be taken; a match nobody joined
// can only be abandoned. Repeating the call with the same winner returns the
// finished record; a different winner afterwards is rejected as tampering.
func (s *MatchService) EndMatch(ctx context.Context, in EndMatchInput) (models.Match, error) {
	if in.Outcome == "" {
		in.Outcome = models.OutcomeWin
	}
	if !in.Outcome.Valid() {
		return models.Match{}, fmt.Errorf("%w: unknown outcome %q", ErrInvalidArgument, in.Outcome)
	}
	if in.Outcome == models.OutcomeAbandoned {
		return models.Match{}, fmt.Errorf("%w: abandoned matches are closed by the reaper", ErrInvalidArgument)
	}
	if in.WinnerID == "" {
		return models.Match{}, fmt.Errorf("%w: winner is required", ErrInvalidArgument)
	}

	return s.mutate(ctx, in.MatchID, func(m *models.Match) (bool, error) {
		if !isParticipant(m, in.CallerID) {
			return false, fmt.Errorf("%w: only seated players can end a match", ErrUnauthorized)
		}
		if m.State == models.MatchStateFinished {
			return false, finishedResult(m, in.WinnerID)
		}
		if m.Players < models.MaxParticipants {
			return false, fmt.Errorf("%w: no opponent has joined yet", ErrInvalidState)
		}
		if !isParticipant(m, in.WinnerID) {
			return false, fmt.Errorf("%w: winner %q holds no seat in this match", ErrInvalidArgument, in.WinnerID)
		}
		s.finish(m, in.WinnerID, in.Outcome)
		return true, nil
	})
}

// AbandonMatch closes a match that never started, recording the abandoned
// sentinel as winner. Matches already in progress are left alone.
func (s *MatchService) AbandonMatch(ctx context.Context, matchID string) (models.Match, error) {
	return s.mutate(ctx, matchID, func(m *models.Match) (bool, error) {
		switch m.State {
		case models.MatchStateFinished:
			return false, finishedResult(m, models.AbandonedWinner)
		case models.MatchStateInProgress:
			return false, fmt.Errorf("%w: match already started", ErrInvalidState)
		}
		s.finish(m, models.AbandonedWinner, models.OutcomeAbandoned)
		return true, nil
	})
}

// StaleMatches lists matches that have waited in open/ready_pending longer than maxAge.
func (s *MatchService) StaleMatches(ctx context.Context, maxAge time.Duration, limit int) ([]models.Match, error) {
	return s.Repo.ListStale(ctx, s.Now().Add(-maxAge), limit)
}

// Record tallies a user's finished matches.
func (s *MatchService) Record(ctx context.Context, userID string) (repository.Record, error) {
	return s.Repo.CountRecord(ctx, userID)
}

func (s *MatchService) finish(m *models.Match, winnerID string, outcome models.Outcome) {
	now := s.Now()
	m.State = models.MatchStateFinished
	m.WinnerID = winnerID
	m.Outcome = outcome
	m.FinishedAt = &now
	m.CurrentTurn = ""
}

// finishedResult decides a repeated end request: nil for the same winner
// (no-op), Conflict for any other.
func finishedResult(m *models.Match, winnerID string) error {
	if m.WinnerID == winnerID {
		return nil
	}
	return fmt.Errorf("%w: match already finished with winner %q", ErrConflict, m.WinnerID)
}

func (s *MatchService) checkDecks(ctx context.Context, m *models.Match) error {
	if s.Decks == nil {
		return nil
	}
	for _, label := range []models.SlotLabel{models.SlotOne, models.SlotTwo} {
		slot := m.Slot(label)
		cards, err := s.Decks.GetDeck(ctx, slot.OccupantID, slot.DeckID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s has no usable deck", ErrInvalidState, label)
			}
			return fmt.Errorf("load deck for %s: %w", label, err)
		}
		if len(cards) < s.Config.MinDeckSize || len(cards) == 0 {
			return fmt.Errorf("%w: %s deck has %d cards, need %d", ErrInvalidState, label, len(cards), max(s.Config.MinDeckSize, 1))
		}
	}
	return nil
}

// mutate runs one load → apply → conditional save cycle. A stale write is
// retried once from a fresh read before it surfaces as Conflict. apply returns
// changed=false for idempotent no-ops, which skip the write.
func (s *MatchService) mutate(ctx context.Context, id string, apply func(m *models.Match) (bool, error)) (models.Match, error) {
	for attempt := 0; ; attempt++ {
		m, err := s.GetMatch(ctx, id)
		if err != nil {
			return models.Match{}, err
		}

		prev := m.State
		changed, err := apply(&m)
		if err != nil {
			return models.Match{}, err
		}
		if !changed {
			return m, nil
		}

		err = s.Repo.Save(ctx, &m)
		if err == nil {
			s.afterSave(ctx, prev, m)
			return m, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			return models.Match{}, err
		}
		if attempt >= 1 {
			return models.Match{}, fmt.Errorf("%w: match %q changed concurrently", ErrConflict, id)
		}
		log.Printf("[MATCH] %s stale write, retrying", id)
	}
}

func (s *MatchService) afterSave(ctx context.Context, prev models.MatchState, m models.Match) {
	if prev != m.State {
		log.Printf("[MATCH] %s %s -> %s (v%d)", m.ID, prev, m.State, m.Version)
	}
	if m.State != models.MatchStateFinished || prev == models.MatchStateFinished {
		return
	}
	if s.Progress != nil {
		if err := s.Progress.RecordResult(ctx, m); err != nil {
			log.Printf("[MATCH] failed to record progression for %s: %v", m.ID, err)
		}
	}
	if s.Archiver != nil {
		if err := s.Archiver.ArchiveMatch(ctx, m); err != nil {
			log.Printf("[Archive] failed to archive match %s: %v", m.ID, err)
		}
	}
}

// newMatchID builds a readable id such as "friday-night-battle-1a2b3c4d".
func newMatchID(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := slug.Make(name)
	if len(base) > generatedSlugLen {
		base = strings.TrimRight(base[:generatedSlugLen], "-")
	}
	if base == "" {
		return uuid.NewString()
	}
	return base + "-" + suffix
}

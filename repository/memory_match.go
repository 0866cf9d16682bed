package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"battle-room-system/models"
)

// MemoryMatchRepository keeps matches in process memory. It honours the same
// version contract as the Postgres store and backs local runs and tests.
type MemoryMatchRepository struct {
	mu      sync.Mutex
	matches map[string]models.Match
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{matches: make(map[string]models.Match)}
}

func (r *MemoryMatchRepository) Load(_ context.Context, id string) (models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[id]
	if !ok {
		return models.Match{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryMatchRepository) Insert(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.ID]; exists {
		return ErrDuplicateID
	}
	if m.Version == 0 {
		m.Version = 1
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	r.matches[m.ID] = *m
	return nil
}

func (r *MemoryMatchRepository) Save(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.matches[m.ID]
	if !ok || stored.Version != m.Version {
		return ErrStaleWrite
	}

	m.Version++
	m.CreatedAt = stored.CreatedAt
	m.UpdatedAt = time.Now()
	r.matches[m.ID] = *m
	return nil
}

func (r *MemoryMatchRepository) ListJoinable(_ context.Context, q JoinableQuery) ([]models.Match, error) {
	r.mu.Lock()
	var out []models.Match
	for _, m := range r.matches {
		if m.State != models.MatchStateOpen && m.State != models.MatchStateReadyPending {
			continue
		}
		if m.Players >= models.MaxParticipants {
			continue
		}
		if q.Visibility != "" && m.Visibility != q.Visibility {
			continue
		}
		if q.WagerRarity != "" && m.WagerRarity != q.WagerRarity {
			continue
		}
		if q.After != nil && !q.After.before(m) {
			continue
		}
		out = append(out, m)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MemoryMatchRepository) ListStale(_ context.Context, createdBefore time.Time, limit int) ([]models.Match, error) {
	r.mu.Lock()
	var out []models.Match
	for _, m := range r.matches {
		if (m.State == models.MatchStateOpen || m.State == models.MatchStateReadyPending) &&
			m.CreatedAt.Before(createdBefore) {
			out = append(out, m)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryMatchRepository) CountRecord(_ context.Context, userID string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rec Record
	for _, m := range r.matches {
		if m.State != models.MatchStateFinished {
			continue
		}
		if m.Slot1.OccupantID == userID || m.Slot2.OccupantID == userID {
			rec.Played++
		}
		if m.WinnerID == userID {
			rec.Won++
		}
	}
	return rec, nil
}

package performance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu   sync.RWMutex
	byID map[string]Goal
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]Goal)}
}

func (s *InMemory) InsertGoals(ctx context.Context, goals []Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range goals {
		s.byID[g.ID] = g
	}
	return nil
}

func (s *InMemory) ListGoals(ctx context.Context, employeeID string) ([]Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Goal
	for _, g := range s.byID {
		if g.EmployeeID == employeeID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) UpdateGoalStatus(ctx context.Context, employeeID, goalID string, status Status, updatedAt time.Time) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[goalID]
	if !ok || g.EmployeeID != employeeID {
		return Goal{}, ErrNotFound
	}
	g.Status = status
	g.UpdatedAt = updatedAt
	s.byID[goalID] = g
	return g, nil
}

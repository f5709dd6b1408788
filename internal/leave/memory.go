package leave

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu   sync.RWMutex
	byID map[string]Leave
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]Leave)}
}

func (s *InMemory) InsertLeave(ctx context.Context, l Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[l.ID] = l
	return nil
}

func (s *InMemory) GetLeave(ctx context.Context, id string) (Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byID[id]
	if !ok {
		return Leave{}, ErrNotFound
	}
	return l, nil
}

func (s *InMemory) HasActiveOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.byID {
		if l.EmployeeID != employeeID || !l.Status.Active() {
			continue
		}
		if Overlaps(l.StartDate, l.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) UpdateLeaveStatus(ctx context.Context, id string, upd StatusUpdate) (Leave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return Leave{}, ErrNotFound
	}
	if l.Status != StatusPending {
		return Leave{}, ErrNotPending
	}
	l.Status = upd.Status
	l.ApproverID = upd.ApproverID
	l.RejectionReason = upd.RejectionReason
	decidedAt := upd.DecidedAt
	l.DecidedAt = &decidedAt
	l.UpdatedAt = decidedAt
	s.byID[id] = l
	return l, nil
}

func (s *InMemory) DeleteLeave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *InMemory) ListLeaves(ctx context.Context, f Filter, offset, limit int) ([]Leave, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Leave
	for _, l := range s.byID {
		if f.EmployeeID != "" && l.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartDate.Equal(all[j].StartDate) {
			return all[i].StartDate.After(all[j].StartDate)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

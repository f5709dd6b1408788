package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

type dayKey struct {
	employeeID string
	date       time.Time
}

// InMemory implements Store with in-process concurrency safety. The map
// insert under the mutex mirrors the store-level unique key the pg
// implementation relies on.
type InMemory struct {
	mu   sync.RWMutex
	days map[dayKey]Record

	// Departments maps employee id -> department for department filters in
	// tests; the pg store resolves this with a join.
	Departments map[string]string
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		days:        make(map[dayKey]Record),
		Departments: make(map[string]string),
	}
}

func (s *InMemory) InsertClockIn(ctx context.Context, r Record) error {
	key := dayKey{employeeID: r.EmployeeID, date: Day(r.Date)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.days[key]; ok {
		return ErrDuplicateDay
	}
	s.days[key] = r
	return nil
}

func (s *InMemory) GetDay(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.days[dayKey{employeeID: employeeID, date: Day(date)}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemory) SetClockOut(ctx context.Context, employeeID string, date time.Time, at time.Time) (Record, error) {
	key := dayKey{employeeID: employeeID, date: Day(date)}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.days[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if r.ClockOut != nil {
		return Record{}, ErrAlreadyClockedOut
	}
	r.ClockOut = &at
	r.UpdatedAt = at
	s.days[key] = r
	return r, nil
}

func (s *InMemory) ListRecords(ctx context.Context, f Filter, offset, limit int) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Record
	for _, r := range s.days {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Department != "" && s.Departments[r.EmployeeID] != f.Department {
			continue
		}
		if !f.From.IsZero() && r.Date.Before(Day(f.From)) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(Day(f.To)) {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].EmployeeID < all[j].EmployeeID
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

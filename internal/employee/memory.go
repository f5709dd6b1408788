package employee

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]Employee
	byUser map[string]string // user id -> employee id
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]Employee),
		byUser: make(map[string]string),
	}
}

func (s *InMemory) InsertEmployee(ctx context.Context, e Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[e.UserID]; ok {
		return ErrAlreadyExists
	}
	s.byID[e.ID] = e
	s.byUser[e.UserID] = e.ID
	return nil
}

func (s *InMemory) GetEmployee(ctx context.Context, id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (s *InMemory) GetEmployeeByUser(ctx context.Context, userID string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemory) ListEmployees(ctx context.Context, f Filter, offset, limit int) ([]Employee, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Employee
	for _, e := range s.byID {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
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

func (s *InMemory) UpdateEmployee(ctx context.Context, id string, upd Update) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	if upd.FirstName != nil {
		e.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		e.LastName = *upd.LastName
	}
	if upd.Department != nil {
		e.Department = *upd.Department
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Salary != nil {
		salary := *upd.Salary
		e.Salary = &salary
	}
	if upd.Documents != nil {
		e.Documents = upd.Documents
	}
	e.UpdatedAt = time.Now().UTC()
	s.byID[id] = e
	return e, nil
}

func (s *InMemory) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUser, e.UserID)
	return nil
}

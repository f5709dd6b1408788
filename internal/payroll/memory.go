package payroll

import (
	"context"
	"sort"
	"sync"
	"time"
)

type periodKey struct {
	employeeID string
	month      int
	year       int
}

// InMemory implements Store with in-process concurrency safety. The map
// insert under the mutex mirrors the (employee, month, year) unique key the
// pg implementation relies on.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[string]Record
	byPeriod map[periodKey]string // period -> record id
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[string]Record),
		byPeriod: make(map[periodKey]string),
	}
}

func key(r Record) periodKey {
	return periodKey{employeeID: r.EmployeeID, month: r.Month, year: r.Year}
}

func (s *InMemory) InsertPayroll(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPeriod[key(r)]; ok {
		return ErrDuplicatePeriod
	}
	s.byID[r.ID] = r
	s.byPeriod[key(r)] = r.ID
	return nil
}

func (s *InMemory) GetPayroll(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemory) GetPayrollByPeriod(ctx context.Context, employeeID string, month, year int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPeriod[periodKey{employeeID: employeeID, month: month, year: year}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemory) ExistingForPeriod(ctx context.Context, employeeIDs []string, month, year int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range employeeIDs {
		if _, ok := s.byPeriod[periodKey{employeeID: id, month: month, year: year}]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *InMemory) UpdatePayroll(ctx context.Context, id string, upd Update) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if r.Paid() {
		return Record{}, ErrAlreadyPaid
	}
	if upd.Basic != nil {
		r.Basic = *upd.Basic
	}
	if upd.Allowance != nil {
		r.Allowance = *upd.Allowance
	}
	if upd.Deductions != nil {
		r.Deductions = *upd.Deductions
	}
	if upd.Tax != nil {
		r.Tax = *upd.Tax
	}
	if upd.PaidOn != nil {
		paidOn := *upd.PaidOn
		r.PaidOn = &paidOn
	}
	r.NetPay = Net(r.Basic, r.Allowance, r.Deductions, r.Tax)
	r.UpdatedAt = time.Now().UTC()
	s.byID[id] = r
	return r, nil
}

func (s *InMemory) DeletePayroll(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if r.Paid() {
		return ErrAlreadyPaid
	}
	delete(s.byPeriod, key(r))
	delete(s.byID, id)
	return nil
}

func (s *InMemory) ListPayrolls(ctx context.Context, f Filter, offset, limit int) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Record
	for _, r := range s.byID {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Month != 0 && r.Month != f.Month {
			continue
		}
		if f.Year != 0 && r.Year != f.Year {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Year != all[j].Year {
			return all[i].Year > all[j].Year
		}
		if all[i].Month != all[j].Month {
			return all[i].Month > all[j].Month
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

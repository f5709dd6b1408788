package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

// MaxPageSize caps attendance listings regardless of caller input.
const MaxPageSize = 100

// Store describes persistence for attendance records. InsertClockIn must
// enforce the (employee, date) unique key atomically; a read-then-write
// sequence in the service would race between two concurrent clock-ins.
type Store interface {
	InsertClockIn(ctx context.Context, r Record) error
	GetDay(ctx context.Context, employeeID string, date time.Time) (Record, error)
	// SetClockOut sets the clock-out time only while it is unset and reports
	// ErrAlreadyClockedOut when the conditional update matches no row.
	SetClockOut(ctx context.Context, employeeID string, date time.Time, at time.Time) (Record, error)
	ListRecords(ctx context.Context, f Filter, offset, limit int) ([]Record, int, error)
}

// ProfileResolver confirms an employee profile exists before summaries are
// served. Implemented by the employee service.
type ProfileResolver interface {
	EmployeeIDByUser(ctx context.Context, userID string) (string, error)
}

// Service is the attendance state engine: NotClockedIn -> ClockedIn ->
// ClockedOut, one record per employee-day, no backward transitions.
type Service struct {
	store  Store
	policy *policy.Evaluator

	now func() time.Time
}

func NewService(store Store, eval *policy.Evaluator) (*Service, error) {
	if store == nil {
		return nil, errors.New("attendance store is required")
	}
	if eval == nil {
		return nil, errors.New("policy evaluator is required")
	}
	return &Service{store: store, policy: eval, now: time.Now}, nil
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ClockIn opens today's record. The store-level unique key makes the create
// atomic; a conflict means the employee already clocked in.
func (s *Service) ClockIn(ctx context.Context, employeeID string) (Record, error) {
	if employeeID == "" {
		return Record{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	r := Record{
		ID:         ids.New(),
		EmployeeID: employeeID,
		Date:       Day(now),
		ClockIn:    &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertClockIn(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicateDay) {
			return Record{}, ErrAlreadyClockedIn
		}
		return Record{}, err
	}
	return r, nil
}

// ClockOut closes today's record. Error order mirrors the state machine:
// missing record, then missing clock-in, then repeated clock-out.
func (s *Service) ClockOut(ctx context.Context, employeeID string) (Record, error) {
	if employeeID == "" {
		return Record{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	day := Day(now)

	r, err := s.store.GetDay(ctx, employeeID, day)
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrNoClockInFound
	}
	if err != nil {
		return Record{}, err
	}
	if r.ClockIn == nil {
		return Record{}, ErrMustClockInFirst
	}
	if r.ClockOut != nil {
		return Record{}, ErrAlreadyClockedOut
	}
	// The conditional update re-checks the clock-out precondition so a
	// concurrent clock-out loses cleanly instead of overwriting.
	return s.store.SetClockOut(ctx, employeeID, day, now)
}

// Today returns the caller's record for the current day, or an empty record
// in the NotClockedIn state.
func (s *Service) Today(ctx context.Context, employeeID string) (Record, Status, error) {
	if employeeID == "" {
		return Record{}, StatusNotClockedIn, ErrNoProfile
	}
	r, err := s.store.GetDay(ctx, employeeID, Day(s.now()))
	if errors.Is(err, ErrNotFound) {
		return Record{EmployeeID: employeeID, Date: Day(s.now())}, StatusNotClockedIn, nil
	}
	if err != nil {
		return Record{}, StatusNotClockedIn, err
	}
	return r, StatusOf(r), nil
}

// Summary returns the caller's own attendance page, date-descending.
func (s *Service) Summary(ctx context.Context, actor policy.Actor, from, to time.Time, page, limit int) ([]Record, int, error) {
	if actor.EmployeeID == "" {
		return nil, 0, ErrNoProfile
	}
	page, limit = normalizePage(page, limit)
	f := Filter{EmployeeID: actor.EmployeeID, From: from, To: to}
	return s.store.ListRecords(ctx, f, (page-1)*limit, limit)
}

// AllEmployeesSummary serves the roster-wide view. The employee filter is
// forced through the policy scope before the query is built so a permissive
// filter can never widen a non-privileged caller's view.
func (s *Service) AllEmployeesSummary(ctx context.Context, actor policy.Actor, f Filter, page, limit int) ([]Record, int, error) {
	if f.Department != "" && !s.policy.CanAccessDepartment(actor, f.Department) {
		return nil, 0, ErrAccessDenied
	}
	f.EmployeeID = s.policy.ScopeEmployeeFilter(actor, f.EmployeeID)
	if f.EmployeeID == "" && actor.Role == policy.RoleEmployee && !actor.IsAdmin {
		return nil, 0, ErrNoProfile
	}
	page, limit = normalizePage(page, limit)
	return s.store.ListRecords(ctx, f, (page-1)*limit, limit)
}

// EmployeeSummary is the admin/hr/manager view of one employee's records.
func (s *Service) EmployeeSummary(ctx context.Context, actor policy.Actor, employeeID string, from, to time.Time, page, limit int) ([]Record, int, error) {
	if employeeID == "" {
		return nil, 0, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if !s.policy.Allows(actor, policy.ActionRead, employeeID) {
		return nil, 0, ErrAccessDenied
	}
	page, limit = normalizePage(page, limit)
	f := Filter{EmployeeID: employeeID, From: from, To: to}
	return s.store.ListRecords(ctx, f, (page-1)*limit, limit)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 30
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

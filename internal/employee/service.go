package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

// MaxPageSize caps employee listings regardless of caller input.
const MaxPageSize = 50

// Store describes persistence for employee profiles.
type Store interface {
	InsertEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByUser(ctx context.Context, userID string) (Employee, error)
	ListEmployees(ctx context.Context, f Filter, offset, limit int) ([]Employee, int, error)
	UpdateEmployee(ctx context.Context, id string, upd Update) (Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// Service applies access policy and validation on top of the store.
type Service struct {
	store  Store
	policy *policy.Evaluator
}

func NewService(store Store, eval *policy.Evaluator) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	if eval == nil {
		return nil, errors.New("policy evaluator is required")
	}
	return &Service{store: store, policy: eval}, nil
}

// CreateInput carries the fields required to open a profile.
type CreateInput struct {
	UserID      string
	FirstName   string
	LastName    string
	Department  string
	Title       string
	JoiningDate time.Time
	Salary      Salary
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Employee, error) {
	if !s.policy.CanManageEmployees(actor) {
		return Employee{}, ErrAccessDenied
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Department = strings.TrimSpace(in.Department)
	in.Title = strings.TrimSpace(in.Title)
	if in.UserID == "" {
		return Employee{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.FirstName == "" || in.LastName == "" {
		return Employee{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if in.Department == "" {
		return Employee{}, fmt.Errorf("%w: department is required", ErrInvalidInput)
	}
	if in.Salary.Base < 0 || in.Salary.Allowance < 0 || in.Salary.Deductions < 0 {
		return Employee{}, fmt.Errorf("%w: salary components must be >= 0", ErrInvalidInput)
	}
	if in.JoiningDate.IsZero() {
		in.JoiningDate = time.Now().UTC()
	}

	now := time.Now().UTC()
	salary := in.Salary
	e := Employee{
		ID:          ids.New(),
		UserID:      in.UserID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Department:  in.Department,
		Title:       in.Title,
		JoiningDate: in.JoiningDate,
		Salary:      &salary,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// Get returns a single profile with compensation stripped unless the
// salary-visibility predicate passes.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id string) (Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if !s.policy.AllowsInDepartment(actor, policy.ActionRead, e.ID, e.Department) {
		// Same shape as a missing id so existence does not leak.
		return Employee{}, ErrNotFound
	}
	return s.sanitize(actor, e), nil
}

// Self returns the caller's own profile.
func (s *Service) Self(ctx context.Context, actor policy.Actor) (Employee, error) {
	e, err := s.store.GetEmployeeByUser(ctx, actor.UserID)
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

// List returns a page of profiles. Limit is clamped to MaxPageSize.
func (s *Service) List(ctx context.Context, actor policy.Actor, f Filter, page, limit int) ([]Employee, int, error) {
	if !s.policy.CanManageEmployees(actor) && actor.Role != policy.RoleManager {
		return nil, 0, ErrAccessDenied
	}
	page, limit = normalizePage(page, limit, MaxPageSize)
	items, total, err := s.store.ListEmployees(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Employee, 0, len(items))
	for _, e := range items {
		out = append(out, s.sanitize(actor, e))
	}
	return out, total, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor policy.Actor, id string, upd Update) (Employee, error) {
	if !s.policy.CanManageEmployees(actor) {
		return Employee{}, ErrAccessDenied
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if upd.Salary != nil {
		if upd.Salary.Base < 0 || upd.Salary.Allowance < 0 || upd.Salary.Deductions < 0 {
			return Employee{}, fmt.Errorf("%w: salary components must be >= 0", ErrInvalidInput)
		}
	}
	return s.store.UpdateEmployee(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !actor.IsAdmin && actor.Role != policy.RoleAdmin {
		return ErrAccessDenied
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	return s.store.DeleteEmployee(ctx, id)
}

// EmployeeIDByUser resolves the profile id for a login account; empty when no
// profile exists. Satisfies auth.EmployeeResolver.
func (s *Service) EmployeeIDByUser(ctx context.Context, userID string) (string, error) {
	e, err := s.store.GetEmployeeByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// Compensation returns the salary components used by payroll computation.
func (s *Service) Compensation(ctx context.Context, employeeID string) (Salary, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Salary{}, err
	}
	if e.Salary == nil {
		return Salary{}, nil
	}
	return *e.Salary, nil
}

// Department returns the department of a profile, used by scoped listings.
func (s *Service) Department(ctx context.Context, employeeID string) (string, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return e.Department, nil
}

func (s *Service) sanitize(actor policy.Actor, e Employee) Employee {
	if s.policy.CanViewSalary(actor, e.ID) {
		return e
	}
	e.Salary = nil
	return e
}

func normalizePage(page, limit, ceiling int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = ceiling
	}
	if limit > ceiling {
		limit = ceiling
	}
	return page, limit
}

package performance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peopleops.org/internal/employee"
	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

// Minimum lengths for caller-supplied goal fields.
const (
	MinTitleLen       = 3
	MinDescriptionLen = 10
)

// Store describes persistence for performance goals. UpdateGoalStatus must
// match on both employee and goal id so a goal id cannot be replayed against
// another employee's plan.
type Store interface {
	InsertGoals(ctx context.Context, goals []Goal) error
	ListGoals(ctx context.Context, employeeID string) ([]Goal, error)
	UpdateGoalStatus(ctx context.Context, employeeID, goalID string, status Status, updatedAt time.Time) (Goal, error)
}

// Directory confirms that an employee profile exists. Implemented by the
// employee service.
type Directory interface {
	Department(ctx context.Context, employeeID string) (string, error)
}

// Service manages per-employee performance goals.
type Service struct {
	store  Store
	dir    Directory
	policy *policy.Evaluator

	now func() time.Time
}

func NewService(store Store, dir Directory, eval *policy.Evaluator) (*Service, error) {
	if store == nil {
		return nil, errors.New("performance store is required")
	}
	if dir == nil {
		return nil, errors.New("employee directory is required")
	}
	if eval == nil {
		return nil, errors.New("policy evaluator is required")
	}
	return &Service{store: store, dir: dir, policy: eval, now: time.Now}, nil
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SetGoals validates and appends goals to an employee's plan, then returns
// the full updated list. The batch is all-or-nothing: one invalid goal
// rejects the whole submission.
func (s *Service) SetGoals(ctx context.Context, actor policy.Actor, employeeID string, inputs []GoalInput) ([]Goal, error) {
	if !s.policy.CanManageGoals(actor) {
		return nil, ErrAccessDenied
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyGoals
	}

	now := s.now().UTC()
	goals := make([]Goal, 0, len(inputs))
	for _, in := range inputs {
		g, err := buildGoal(employeeID, in, now)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	if err := s.checkEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	if err := s.store.InsertGoals(ctx, goals); err != nil {
		return nil, err
	}
	return s.store.ListGoals(ctx, employeeID)
}

// UpdateStatus moves one goal to a new lifecycle state. Managers and above
// may update anyone's goals; employees only their own.
func (s *Service) UpdateStatus(ctx context.Context, actor policy.Actor, employeeID, goalID, rawStatus string) (Goal, error) {
	employeeID = strings.TrimSpace(employeeID)
	goalID = strings.TrimSpace(goalID)
	if employeeID == "" || goalID == "" {
		return Goal{}, fmt.Errorf("%w: employee id and goal id are required", ErrInvalidInput)
	}
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return Goal{}, err
	}
	if !s.policy.CanUpdateGoalStatus(actor, employeeID) {
		return Goal{}, ErrAccessDenied
	}
	if err := s.checkEmployee(ctx, employeeID); err != nil {
		return Goal{}, err
	}
	return s.store.UpdateGoalStatus(ctx, employeeID, goalID, status, s.now().UTC())
}

// Goals returns an employee's goal list, visible to managers and above and
// to the employee themselves.
func (s *Service) Goals(ctx context.Context, actor policy.Actor, employeeID string) ([]Goal, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if !s.policy.Allows(actor, policy.ActionRead, employeeID) {
		return nil, ErrEmployeeNotFound
	}
	if err := s.checkEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListGoals(ctx, employeeID)
}

func (s *Service) checkEmployee(ctx context.Context, employeeID string) error {
	_, err := s.dir.Department(ctx, employeeID)
	if errors.Is(err, employee.ErrNotFound) {
		return ErrEmployeeNotFound
	}
	return err
}

func buildGoal(employeeID string, in GoalInput, now time.Time) (Goal, error) {
	title := strings.TrimSpace(in.Title)
	if len(title) < MinTitleLen {
		return Goal{}, ErrTitleTooShort
	}
	description := strings.TrimSpace(in.Description)
	if len(description) < MinDescriptionLen {
		return Goal{}, ErrDescriptionTooShort
	}
	if in.TargetDate.IsZero() || !in.TargetDate.After(now) {
		return Goal{}, ErrTargetDateNotFuture
	}
	status := StatusPending
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := ParseStatus(in.Status)
		if err != nil {
			return Goal{}, err
		}
		status = parsed
	}
	return Goal{
		ID:          ids.New(),
		EmployeeID:  employeeID,
		Title:       title,
		Description: description,
		TargetDate:  in.TargetDate.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

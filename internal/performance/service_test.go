package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"peopleops.org/internal/employee"
	"peopleops.org/internal/policy"
)

// deptMap is a Directory backed by a fixed map.
type deptMap map[string]string

func (m deptMap) Department(ctx context.Context, employeeID string) (string, error) {
	d, ok := m[employeeID]
	if !ok {
		return "", employee.ErrNotFound
	}
	return d, nil
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

var (
	hrActor      = policy.Actor{UserID: "u-hr", Role: policy.RoleHR}
	managerActor = policy.Actor{UserID: "u-mgr", EmployeeID: "e-mgr", Role: policy.RoleManager}
	selfActor    = policy.Actor{UserID: "u1", EmployeeID: "e1", Role: policy.RoleEmployee}
	otherActor   = policy.Actor{UserID: "u2", EmployeeID: "e2", Role: policy.RoleEmployee}
)

func newTestService(t *testing.T) (*Service, *InMemory) {
	t.Helper()
	store := NewInMemory()
	dir := deptMap{"e1": "Engineering", "e2": "Engineering", "e-mgr": "Engineering"}
	svc, err := NewService(store, dir, policy.NewEvaluator(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc.WithClock(func() time.Time { return fixedNow }), store
}

func validGoal() GoalInput {
	return GoalInput{
		Title:       "Ship search",
		Description: "Deliver the revamped search backend",
		TargetDate:  fixedNow.AddDate(0, 1, 0),
	}
}

func TestSetGoalsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   GoalInput
		want error
	}{
		{"short title", GoalInput{Title: "ab", Description: "long enough description", TargetDate: fixedNow.AddDate(0, 0, 7)}, ErrTitleTooShort},
		{"short description", GoalInput{Title: "Ship it", Description: "too short", TargetDate: fixedNow.AddDate(0, 0, 7)}, ErrDescriptionTooShort},
		{"past target date", GoalInput{Title: "Ship it", Description: "long enough description", TargetDate: fixedNow.AddDate(0, 0, -1)}, ErrTargetDateNotFuture},
		{"zero target date", GoalInput{Title: "Ship it", Description: "long enough description"}, ErrTargetDateNotFuture},
		{"bad status", GoalInput{Title: "Ship it", Description: "long enough description", TargetDate: fixedNow.AddDate(0, 0, 7), Status: "DONE"}, ErrInvalidStatus},
	}
	for _, tc := range cases {
		if _, err := svc.SetGoals(ctx, hrActor, "e1", []GoalInput{tc.in}); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	if _, err := svc.SetGoals(ctx, hrActor, "e1", nil); !errors.Is(err, ErrEmptyGoals) {
		t.Fatalf("expected ErrEmptyGoals, got %v", err)
	}
	if _, err := svc.SetGoals(ctx, hrActor, " ", []GoalInput{validGoal()}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSetGoalsBatchIsAllOrNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	bad := validGoal()
	bad.Title = "x"
	if _, err := svc.SetGoals(ctx, hrActor, "e1", []GoalInput{validGoal(), bad}); !errors.Is(err, ErrTitleTooShort) {
		t.Fatalf("expected ErrTitleTooShort, got %v", err)
	}
	goals, err := store.ListGoals(ctx, "e1")
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 0 {
		t.Fatalf("expected no goals stored, got %d", len(goals))
	}
}

func TestSetGoalsDefaultsToPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	second := validGoal()
	second.Title = "Improve onboarding"
	second.Status = "in_progress"
	goals, err := svc.SetGoals(ctx, managerActor, "e1", []GoalInput{validGoal(), second})
	if err != nil {
		t.Fatalf("SetGoals: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}
	if goals[0].Status != StatusPending {
		t.Fatalf("first goal status = %s, want PENDING", goals[0].Status)
	}
	if goals[1].Status != StatusInProgress {
		t.Fatalf("second goal status = %s, want IN_PROGRESS", goals[1].Status)
	}
}

func TestSetGoalsAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetGoals(ctx, selfActor, "e1", []GoalInput{validGoal()}); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for employee role, got %v", err)
	}
	if _, err := svc.SetGoals(ctx, hrActor, "e-ghost", []GoalInput{validGoal()}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	goals, err := svc.SetGoals(ctx, hrActor, "e1", []GoalInput{validGoal()})
	if err != nil {
		t.Fatalf("SetGoals: %v", err)
	}
	id := goals[0].ID

	g, err := svc.UpdateStatus(ctx, selfActor, "e1", id, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("UpdateStatus by owner: %v", err)
	}
	if g.Status != StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", g.Status)
	}

	if _, err := svc.UpdateStatus(ctx, managerActor, "e1", id, "completed"); err != nil {
		t.Fatalf("UpdateStatus by manager: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, otherActor, "e1", id, "COMPLETED"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for foreign employee, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, hrActor, "e1", id, "SHIPPED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, hrActor, "e1", "g-missing", "COMPLETED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// A goal id only counts against its own employee's plan.
	if _, err := svc.UpdateStatus(ctx, hrActor, "e2", id, "COMPLETED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for mismatched employee, got %v", err)
	}
}

func TestGoalsRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetGoals(ctx, hrActor, "e1", []GoalInput{validGoal()}); err != nil {
		t.Fatalf("SetGoals: %v", err)
	}

	goals, err := svc.Goals(ctx, selfActor, "e1")
	if err != nil {
		t.Fatalf("Goals for self: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}
	if _, err := svc.Goals(ctx, managerActor, "e1"); err != nil {
		t.Fatalf("Goals for manager: %v", err)
	}
	if _, err := svc.Goals(ctx, otherActor, "e1"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound for foreign read, got %v", err)
	}
}

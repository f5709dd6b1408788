package employee

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"peopleops.org/internal/policy"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewInMemory(), policy.NewEvaluator(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

var (
	hrActor    = policy.Actor{UserID: "u-hr", Role: policy.RoleHR}
	adminActor = policy.Actor{UserID: "u-admin", Role: policy.RoleAdmin, IsAdmin: true}
)

func createEmployee(t *testing.T, svc *Service, userID string) Employee {
	t.Helper()
	e, err := svc.Create(context.Background(), hrActor, CreateInput{
		UserID:     userID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Department: "engineering",
		Title:      "engineer",
		Salary:     Salary{Base: 30000, Allowance: 5000, Deductions: 2000},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return e
}

func TestCreateRequiresPrivilegedRole(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), policy.Actor{UserID: "u1", Role: policy.RoleEmployee}, CreateInput{
		UserID: "u1", FirstName: "a", LastName: "b", Department: "x",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	_, err = svc.Create(context.Background(), policy.Actor{UserID: "m1", Role: policy.RoleManager}, CreateInput{
		UserID: "u1", FirstName: "a", LastName: "b", Department: "x",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("manager must not create profiles, got %v", err)
	}
}

func TestCreateRejectsDuplicateUser(t *testing.T) {
	svc := newTestService(t)
	createEmployee(t, svc, "u1")
	_, err := svc.Create(context.Background(), hrActor, CreateInput{
		UserID: "u1", FirstName: "a", LastName: "b", Department: "x",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSalaryStrippedForOtherViewers(t *testing.T) {
	svc := newTestService(t)
	e := createEmployee(t, svc, "u1")
	ctx := context.Background()

	// HR sees compensation.
	got, err := svc.Get(ctx, hrActor, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Salary == nil || got.Salary.Base != 30000 {
		t.Fatalf("hr view lost salary: %+v", got.Salary)
	}

	// Manager reads the record but never the figures.
	got, err = svc.Get(ctx, policy.Actor{UserID: "um", EmployeeID: "m1", Role: policy.RoleManager}, e.ID)
	if err != nil {
		t.Fatalf("Get as manager: %v", err)
	}
	if got.Salary != nil {
		t.Fatal("manager view must omit salary")
	}

	// The employee sees their own figures.
	got, err = svc.Get(ctx, policy.Actor{UserID: "u1", EmployeeID: e.ID, Role: policy.RoleEmployee}, e.ID)
	if err != nil {
		t.Fatalf("Get as self: %v", err)
	}
	if got.Salary == nil {
		t.Fatal("self view must include salary")
	}
}

func TestGetCollapsesForbiddenIntoNotFound(t *testing.T) {
	svc := newTestService(t)
	e := createEmployee(t, svc, "u1")
	other := policy.Actor{UserID: "u2", EmployeeID: "someone-else", Role: policy.RoleEmployee}

	_, errForbidden := svc.Get(context.Background(), other, e.ID)
	_, errMissing := svc.Get(context.Background(), other, "no-such-id")
	if !errors.Is(errForbidden, ErrNotFound) || !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("forbidden=%v missing=%v, both must be ErrNotFound", errForbidden, errMissing)
	}
}

func TestListClampsPageSize(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 60; i++ {
		createEmployee(t, svc, fmt.Sprintf("u%d", i))
	}
	items, total, err := svc.List(context.Background(), hrActor, Filter{}, 1, 500)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 60 {
		t.Fatalf("total=%d, want 60", total)
	}
	if len(items) != MaxPageSize {
		t.Fatalf("page size=%d, want clamp %d", len(items), MaxPageSize)
	}
}

func TestDeleteIsAdminOnly(t *testing.T) {
	svc := newTestService(t)
	e := createEmployee(t, svc, "u1")
	if err := svc.Delete(context.Background(), hrActor, e.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("hr delete must be denied, got %v", err)
	}
	if err := svc.Delete(context.Background(), adminActor, e.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestEmployeeIDByUser(t *testing.T) {
	svc := newTestService(t)
	e := createEmployee(t, svc, "u1")

	id, err := svc.EmployeeIDByUser(context.Background(), "u1")
	if err != nil || id != e.ID {
		t.Fatalf("EmployeeIDByUser=%q err=%v, want %q", id, err, e.ID)
	}
	id, err = svc.EmployeeIDByUser(context.Background(), "no-profile")
	if err != nil || id != "" {
		t.Fatalf("missing profile must resolve to empty id, got %q err=%v", id, err)
	}
}

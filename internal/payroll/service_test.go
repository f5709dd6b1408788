package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"peopleops.org/internal/employee"
	"peopleops.org/internal/policy"
)

// compMap is a CompensationSource backed by a fixed map.
type compMap map[string]employee.Salary

func (m compMap) Compensation(ctx context.Context, employeeID string) (employee.Salary, error) {
	s, ok := m[employeeID]
	if !ok {
		return employee.Salary{}, employee.ErrNotFound
	}
	return s, nil
}

var (
	hrActor    = policy.Actor{UserID: "u-hr", Role: policy.RoleHR}
	adminActor = policy.Actor{UserID: "u-admin", Role: policy.RoleAdmin, IsAdmin: true}
	defaultPay = employee.Salary{Base: 30000, Allowance: 5000, Deductions: 2000}
)

func newTestService(t *testing.T, comp CompensationSource) (*Service, *InMemory) {
	t.Helper()
	store := NewInMemory()
	if comp == nil {
		comp = compMap{"e1": defaultPay, "e2": defaultPay, "e3": defaultPay}
	}
	svc, err := NewService(store, comp, policy.NewEvaluator(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestRunCycleArithmetic(t *testing.T) {
	svc, _ := newTestService(t, nil)

	res, err := svc.RunCycle(context.Background(), hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("created=%d, want 1", len(res.Created))
	}
	rec := res.Created[0]
	if rec.Tax != 3000 {
		t.Fatalf("tax=%d, want 3000", rec.Tax)
	}
	if rec.NetPay != 30000 {
		t.Fatalf("netPay=%d, want 30000", rec.NetPay)
	}
	if rec.Paid() {
		t.Fatal("freshly created record must be unpaid")
	}
	if rec.PayslipURL != "/payslip/e1_3_2024.pdf" {
		t.Fatalf("payslip url=%q", rec.PayslipURL)
	}
}

func TestRunCycleValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	empActor := policy.Actor{UserID: "u1", EmployeeID: "e1", Role: policy.RoleEmployee}
	if _, err := svc.RunCycle(ctx, empActor, []string{"e1"}, 3, 2024); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	mgrActor := policy.Actor{UserID: "um", EmployeeID: "m1", Role: policy.RoleManager}
	if _, err := svc.RunCycle(ctx, mgrActor, []string{"e1"}, 3, 2024); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("manager must not run payroll, got %v", err)
	}
	if _, err := svc.RunCycle(ctx, hrActor, nil, 3, 2024); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 13, 2024); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 1, 1850); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestRunCycleIdempotentByKey(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Summary.Successful != 1 {
		t.Fatalf("first run successful=%d", first.Summary.Successful)
	}

	second, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if !errors.Is(err, ErrCycleFailed) {
		t.Fatalf("second run must fail wholesale, got %v", err)
	}
	if len(second.Created) != 0 || len(second.Errors) != 1 {
		t.Fatalf("second run created=%d errors=%d", len(second.Created), len(second.Errors))
	}
	if second.Errors[0].EmployeeID != "e1" {
		t.Fatalf("error entry for %s, want e1", second.Errors[0].EmployeeID)
	}

	_, total, err := store.ListPayrolls(ctx, Filter{EmployeeID: "e1"}, 0, 10)
	if err != nil {
		t.Fatalf("ListPayrolls: %v", err)
	}
	if total != 1 {
		t.Fatalf("total=%d, want a single record", total)
	}
}

func TestRunCyclePartialFailure(t *testing.T) {
	svc, _ := newTestService(t, compMap{"e1": defaultPay, "e2": defaultPay})

	res, err := svc.RunCycle(context.Background(), hrActor, []string{"e1", "e2", "ghost"}, 3, 2024)
	if err != nil {
		t.Fatalf("partial failure must not error the call: %v", err)
	}
	if res.Summary.Total != 3 || res.Summary.Successful != 2 || res.Summary.Failed != 1 {
		t.Fatalf("summary=%+v", res.Summary)
	}
	if len(res.Created) != 2 {
		t.Fatalf("created=%d, want 2", len(res.Created))
	}
	if len(res.Errors) != 1 || res.Errors[0].EmployeeID != "ghost" {
		t.Fatalf("errors=%+v", res.Errors)
	}
}

// slowComp counts concurrent Compensation calls to verify the batch bound.
type slowComp struct {
	inFlight atomic.Int32
	max      atomic.Int32
}

func (c *slowComp) Compensation(ctx context.Context, employeeID string) (employee.Salary, error) {
	cur := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		prev := c.max.Load()
		if cur <= prev || c.max.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return defaultPay, nil
}

func TestRunCycleBoundedConcurrency(t *testing.T) {
	comp := &slowComp{}
	svc, _ := newTestService(t, comp)

	roster := make([]string, 50)
	for i := range roster {
		roster[i] = fmt.Sprintf("e%d", i)
	}
	res, err := svc.RunCycle(context.Background(), hrActor, roster, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Summary.Successful != 50 {
		t.Fatalf("successful=%d, want 50", res.Summary.Successful)
	}
	if got := comp.max.Load(); got > batchConcurrency {
		t.Fatalf("observed %d concurrent computations, bound is %d", got, batchConcurrency)
	}
}

func TestUpdateRecomputesNet(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	id := res.Created[0].ID

	basic := int64(40000)
	updated, err := svc.UpdateRecord(ctx, hrActor, id, Update{Basic: &basic})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	// Tax stays as stored unless explicitly changed; net follows components.
	want := Net(40000, 5000, 2000, updated.Tax)
	if updated.NetPay != want {
		t.Fatalf("netPay=%d, want %d", updated.NetPay, want)
	}

	if _, err := svc.UpdateRecord(ctx, hrActor, "no-such-id", Update{Basic: &basic}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPaidRecordsAreImmutable(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	id := res.Created[0].ID

	paidOn := time.Now().UTC()
	if _, err := svc.UpdateRecord(ctx, hrActor, id, Update{PaidOn: &paidOn}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	basic := int64(50000)
	if _, err := svc.UpdateRecord(ctx, hrActor, id, Update{Basic: &basic}); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid on update, got %v", err)
	}
	if err := svc.DeleteRecord(ctx, adminActor, id); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid on delete, got %v", err)
	}
}

func TestDeleteIsAdminOnly(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	id := res.Created[0].ID

	if err := svc.DeleteRecord(ctx, hrActor, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("hr delete must be denied, got %v", err)
	}
	if err := svc.DeleteRecord(ctx, adminActor, id); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestGetCollapsesForbiddenIntoNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	id := res.Created[0].ID

	other := policy.Actor{UserID: "u2", EmployeeID: "e2", Role: policy.RoleEmployee}
	_, errForbidden := svc.Get(ctx, other, id)
	_, errMissing := svc.Get(ctx, other, "no-such-id")
	if !errors.Is(errForbidden, ErrNotFound) || !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("forbidden=%v missing=%v, both must be ErrNotFound", errForbidden, errMissing)
	}

	// The record's own employee reads it fine.
	self := policy.Actor{UserID: "u1", EmployeeID: "e1", Role: policy.RoleEmployee}
	if _, err := svc.Get(ctx, self, id); err != nil {
		t.Fatalf("self read: %v", err)
	}
}

func TestPayslip(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.RunCycle(ctx, hrActor, []string{"e1"}, 3, 2024); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	self := policy.Actor{UserID: "u1", EmployeeID: "e1", Role: policy.RoleEmployee}
	rec, err := svc.Payslip(ctx, self, "e1", 3, 2024)
	if err != nil {
		t.Fatalf("Payslip: %v", err)
	}
	if rec.PayslipURL == "" {
		t.Fatal("empty payslip url")
	}

	mgr := policy.Actor{UserID: "um", EmployeeID: "m1", Role: policy.RoleManager}
	if _, err := svc.Payslip(ctx, mgr, "e1", 3, 2024); !errors.Is(err, ErrNotFound) {
		t.Fatalf("manager must not read payslip figures, got %v", err)
	}
}

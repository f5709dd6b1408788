package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"peopleops.org/internal/attendance"
	"peopleops.org/internal/leave"
	"peopleops.org/internal/payroll"
	"peopleops.org/internal/performance"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestInsertClockInDuplicateDay(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into attendance_records").
		WithArgs("att-1", "emp-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into attendance_records").
		WithArgs("att-2", "emp-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := attendance.Record{
		ID: "att-1", EmployeeID: "emp-1", Date: attendance.Day(now),
		ClockIn: &now, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.InsertClockIn(context.Background(), rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	rec.ID = "att-2"
	if err := store.InsertClockIn(context.Background(), rec); !errors.Is(err, attendance.ErrDuplicateDay) {
		t.Fatalf("expected ErrDuplicateDay, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetClockOutAlreadySet(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("update attendance_records").
		WithArgs("emp-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "employee_id", "date", "clock_in", "clock_out", "created_at", "updated_at",
		}))

	_, err := store.SetClockOut(context.Background(), "emp-1", now, now)
	if !errors.Is(err, attendance.ErrAlreadyClockedOut) {
		t.Fatalf("expected ErrAlreadyClockedOut, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateLeaveStatusDistinguishesDecidedFromMissing(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	upd := leave.StatusUpdate{Status: leave.StatusApproved, ApproverID: "mgr-1", DecidedAt: now}

	leaveCols := []string{
		"id", "employee_id", "start_date", "end_date", "reason", "status",
		"rejection_reason", "approver_id", "decided_at", "created_at", "updated_at",
	}

	// Conditional update misses, follow-up read finds a decided request.
	mock.ExpectQuery("update leave_requests").
		WithArgs("lv-1", sqlmock.AnyArg(), "mgr-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(leaveCols))
	mock.ExpectQuery("from leave_requests where id").
		WithArgs("lv-1").
		WillReturnRows(sqlmock.NewRows(leaveCols).AddRow(
			"lv-1", "emp-1", now, now, "trip", "Rejected", "", "mgr-2", now, now, now,
		))

	if _, err := store.UpdateLeaveStatus(context.Background(), "lv-1", upd); !errors.Is(err, leave.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	// Conditional update misses and the follow-up read misses too.
	mock.ExpectQuery("update leave_requests").
		WithArgs("lv-9", sqlmock.AnyArg(), "mgr-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(leaveCols))
	mock.ExpectQuery("from leave_requests where id").
		WithArgs("lv-9").
		WillReturnRows(sqlmock.NewRows(leaveCols))

	if _, err := store.UpdateLeaveStatus(context.Background(), "lv-9", upd); !errors.Is(err, leave.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasActiveOverlapQueriesClosedInterval(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("start_date <= \\$3").
		WithArgs("emp-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	got, err := store.HasActiveOverlap(context.Background(), "emp-1", start, end)
	if err != nil {
		t.Fatalf("HasActiveOverlap: %v", err)
	}
	if !got {
		t.Fatalf("expected overlap")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertPayrollDuplicatePeriod(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into payroll_records").
		WithArgs("pr-1", "emp-1", 3, 2024, int64(30000), int64(5000), int64(2000),
			int64(3000), int64(30000), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := payroll.Record{
		ID: "pr-1", EmployeeID: "emp-1", Month: 3, Year: 2024,
		Basic: 30000, Allowance: 5000, Deductions: 2000,
		Tax: payroll.Tax(30000), NetPay: payroll.Net(30000, 5000, 2000, 3000),
		PayslipURL: payroll.PayslipURL("emp-1", 3, 2024),
		CreatedAt:  now, UpdatedAt: now,
	}
	if err := store.InsertPayroll(context.Background(), rec); !errors.Is(err, payroll.ErrDuplicatePeriod) {
		t.Fatalf("expected ErrDuplicatePeriod, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePayrollPaidRecordIsFrozen(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	basic := int64(40000)

	payrollCols := []string{
		"id", "employee_id", "month", "year", "basic", "allowance",
		"deductions", "tax", "net_pay", "paid_on", "payslip_url",
		"created_at", "updated_at",
	}

	mock.ExpectQuery("update payroll_records").
		WithArgs("pr-1", basic).
		WillReturnRows(sqlmock.NewRows(payrollCols))
	mock.ExpectQuery("from payroll_records where id").
		WithArgs("pr-1").
		WillReturnRows(sqlmock.NewRows(payrollCols).AddRow(
			"pr-1", "emp-1", 3, 2024, int64(30000), int64(5000), int64(2000),
			int64(3000), int64(30000), now, "/payslip/emp-1_3_2024.pdf", now, now,
		))

	_, err := store.UpdatePayroll(context.Background(), "pr-1", payroll.Update{Basic: &basic})
	if !errors.Is(err, payroll.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExistingForPeriodEmptyRoster(t *testing.T) {
	store, _ := newMockStore(t)
	got, err := store.ExistingForPeriod(context.Background(), nil, 3, 2024)
	if err != nil {
		t.Fatalf("ExistingForPeriod: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no ids, got %v", got)
	}
}

func TestInsertGoalsIsTransactional(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("insert into performance_goals").
		WithArgs("g-1", "emp-1", "Ship search", "Deliver the revamped search backend",
			sqlmock.AnyArg(), "PENDING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into performance_goals").
		WithArgs("g-2", "emp-1", "Mentor intern", "Weekly pairing sessions through the quarter",
			sqlmock.AnyArg(), "PENDING", sqlmock.AnyArg()).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	goals := []performance.Goal{
		{ID: "g-1", EmployeeID: "emp-1", Title: "Ship search",
			Description: "Deliver the revamped search backend",
			TargetDate:  now.AddDate(0, 1, 0), Status: performance.StatusPending,
			CreatedAt: now, UpdatedAt: now},
		{ID: "g-2", EmployeeID: "emp-1", Title: "Mentor intern",
			Description: "Weekly pairing sessions through the quarter",
			TargetDate:  now.AddDate(0, 1, 0), Status: performance.StatusPending,
			CreatedAt: now, UpdatedAt: now},
	}
	if err := store.InsertGoals(context.Background(), goals); err == nil {
		t.Fatal("expected insert error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateGoalStatusScopedToEmployee(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("update performance_goals").
		WithArgs("emp-2", "g-1", "COMPLETED", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.UpdateGoalStatus(context.Background(), "emp-2", "g-1",
		performance.StatusCompleted, time.Now().UTC())
	if !errors.Is(err, performance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

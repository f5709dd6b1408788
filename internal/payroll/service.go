package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"peopleops.org/internal/employee"
	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

// MaxPageSize caps payroll listings regardless of caller input.
const MaxPageSize = 50

// batchConcurrency bounds in-flight per-employee computations during a cycle
// run. Tuning knob, not a correctness requirement.
const batchConcurrency = 10

// Store describes persistence for payroll records. InsertPayroll must enforce
// the (employee, month, year) unique key atomically. UpdatePayroll and
// DeletePayroll must be conditional on the record being unpaid and report
// ErrAlreadyPaid when the condition fails.
type Store interface {
	InsertPayroll(ctx context.Context, r Record) error
	GetPayroll(ctx context.Context, id string) (Record, error)
	GetPayrollByPeriod(ctx context.Context, employeeID string, month, year int) (Record, error)
	ExistingForPeriod(ctx context.Context, employeeIDs []string, month, year int) ([]string, error)
	UpdatePayroll(ctx context.Context, id string, upd Update) (Record, error)
	DeletePayroll(ctx context.Context, id string) error
	ListPayrolls(ctx context.Context, f Filter, offset, limit int) ([]Record, int, error)
}

// CompensationSource provides the base salary components for an employee.
// Implemented by the employee service.
type CompensationSource interface {
	Compensation(ctx context.Context, employeeID string) (employee.Salary, error)
}

// Service is the payroll batch engine.
type Service struct {
	store  Store
	comp   CompensationSource
	policy *policy.Evaluator

	now func() time.Time
}

func NewService(store Store, comp CompensationSource, eval *policy.Evaluator) (*Service, error) {
	if store == nil {
		return nil, errors.New("payroll store is required")
	}
	if comp == nil {
		return nil, errors.New("compensation source is required")
	}
	if eval == nil {
		return nil, errors.New("policy evaluator is required")
	}
	return &Service{store: store, comp: comp, policy: eval, now: time.Now}, nil
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RunCycle computes payroll for a roster of employees. Each employee is
// processed independently: failures collect into the result instead of
// aborting the batch, and at most batchConcurrency computations are in
// flight at once. The call itself errors only on bad input, insufficient
// role, or a batch where nobody succeeded.
func (s *Service) RunCycle(ctx context.Context, actor policy.Actor, employeeIDs []string, month, year int) (CycleResult, error) {
	if !s.policy.CanRunPayroll(actor) {
		return CycleResult{}, ErrUnauthorized
	}
	roster := dedupe(employeeIDs)
	if len(roster) == 0 {
		return CycleResult{}, ErrEmptyBatch
	}
	if month < 1 || month > 12 {
		return CycleResult{}, ErrInvalidMonth
	}
	if year < 2000 || year > s.now().UTC().Year()+1 {
		return CycleResult{}, ErrInvalidYear
	}

	result := CycleResult{Summary: CycleSummary{Total: len(roster)}}

	// Pre-check: employees that already have a record for this period are
	// excluded with an error entry, keeping the run idempotent by key.
	existing, err := s.store.ExistingForPeriod(ctx, roster, month, year)
	if err != nil {
		return CycleResult{}, err
	}
	skip := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		skip[id] = struct{}{}
		result.Errors = append(result.Errors, CycleError{
			EmployeeID: id,
			Reason:     fmt.Sprintf("payroll already exists for %d/%d", month, year),
		})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, id := range roster {
		if _, ok := skip[id]; ok {
			continue
		}
		g.Go(func() error {
			rec, err := s.computeOne(gctx, id, month, year)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, CycleError{EmployeeID: id, Reason: err.Error()})
				return nil
			}
			result.Created = append(result.Created, rec)
			return nil
		})
	}
	// Worker errors are folded into the result; Wait only observes ctx
	// cancellation.
	if err := g.Wait(); err != nil {
		return CycleResult{}, err
	}

	result.Summary.Successful = len(result.Created)
	result.Summary.Failed = len(result.Errors)
	if result.Summary.Successful == 0 {
		return result, ErrCycleFailed
	}
	return result, nil
}

func (s *Service) computeOne(ctx context.Context, employeeID string, month, year int) (Record, error) {
	comp, err := s.comp.Compensation(ctx, employeeID)
	if errors.Is(err, employee.ErrNotFound) {
		return Record{}, ErrNoProfile
	}
	if err != nil {
		return Record{}, err
	}

	tax := Tax(comp.Base)
	now := s.now().UTC()
	rec := Record{
		ID:         ids.New(),
		EmployeeID: employeeID,
		Month:      month,
		Year:       year,
		Basic:      comp.Base,
		Allowance:  comp.Allowance,
		Deductions: comp.Deductions,
		Tax:        tax,
		NetPay:     Net(comp.Base, comp.Allowance, comp.Deductions, tax),
		PayslipURL: PayslipURL(employeeID, month, year),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertPayroll(ctx, rec); err != nil {
		// A concurrent run can win the insert between the pre-check and
		// here; the unique key still holds.
		return Record{}, err
	}
	return rec, nil
}

// UpdateRecord mutates an unpaid record and recomputes net pay whenever any
// input component changes.
func (s *Service) UpdateRecord(ctx context.Context, actor policy.Actor, id string, upd Update) (Record, error) {
	if !s.policy.CanRunPayroll(actor) {
		return Record{}, ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, fmt.Errorf("%w: payroll id is required", ErrInvalidInput)
	}
	cur, err := s.store.GetPayroll(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if cur.Paid() {
		return Record{}, ErrAlreadyPaid
	}
	for _, v := range []*int64{upd.Basic, upd.Allowance, upd.Deductions, upd.Tax} {
		if v != nil && *v < 0 {
			return Record{}, fmt.Errorf("%w: components must be >= 0", ErrInvalidInput)
		}
	}
	return s.store.UpdatePayroll(ctx, id, upd)
}

// DeleteRecord removes an unpaid record. Admin only.
func (s *Service) DeleteRecord(ctx context.Context, actor policy.Actor, id string) error {
	if !s.policy.CanDeletePayroll(actor) {
		return ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: payroll id is required", ErrInvalidInput)
	}
	cur, err := s.store.GetPayroll(ctx, id)
	if err != nil {
		return err
	}
	if cur.Paid() {
		return ErrAlreadyPaid
	}
	return s.store.DeletePayroll(ctx, id)
}

// Get returns one record. Payroll figures are compensation, so reads are
// gated by the salary-visibility predicate and forbidden reads collapse into
// ErrNotFound.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, fmt.Errorf("%w: payroll id is required", ErrInvalidInput)
	}
	rec, err := s.store.GetPayroll(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !s.policy.CanViewSalary(actor, rec.EmployeeID) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Payslip returns the record for one employee's pay period.
func (s *Service) Payslip(ctx context.Context, actor policy.Actor, employeeID string, month, year int) (Record, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Record{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if month < 1 || month > 12 {
		return Record{}, ErrInvalidMonth
	}
	if !s.policy.CanViewSalary(actor, employeeID) {
		return Record{}, ErrNotFound
	}
	return s.store.GetPayrollByPeriod(ctx, employeeID, month, year)
}

// List returns a page of records. Non-privileged callers only ever see their
// own.
func (s *Service) List(ctx context.Context, actor policy.Actor, f Filter, page, limit int) ([]Record, int, error) {
	if !s.policy.CanRunPayroll(actor) {
		if actor.EmployeeID == "" {
			return nil, 0, ErrNoProfile
		}
		f.EmployeeID = actor.EmployeeID
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.store.ListPayrolls(ctx, f, (page-1)*limit, limit)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

// MaxPageSize caps leave listings regardless of caller input.
const MaxPageSize = 100

// StatusUpdate carries a decision applied to a pending request.
type StatusUpdate struct {
	Status          Status
	ApproverID      string
	RejectionReason string
	DecidedAt       time.Time
}

// Store describes persistence for leave requests. UpdateLeaveStatus must be
// conditional on the request still being Pending and report ErrNotPending
// when the condition fails, so a concurrent second decision loses cleanly.
type Store interface {
	InsertLeave(ctx context.Context, l Leave) error
	GetLeave(ctx context.Context, id string) (Leave, error)
	HasActiveOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	UpdateLeaveStatus(ctx context.Context, id string, upd StatusUpdate) (Leave, error)
	DeleteLeave(ctx context.Context, id string) error
	ListLeaves(ctx context.Context, f Filter, offset, limit int) ([]Leave, int, error)
}

// Service is the leave lifecycle engine: Pending -> Approved/Rejected by an
// approver, Pending -> Cancelled by the owner, all terminal.
type Service struct {
	store  Store
	policy *policy.Evaluator

	now func() time.Time
}

func NewService(store Store, eval *policy.Evaluator) (*Service, error) {
	if store == nil {
		return nil, errors.New("leave store is required")
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

// Request submits a Pending leave request for the caller.
//
// The overlap check and the insert are two store calls, so two concurrent
// overlapping submissions for the same employee can both pass. The contract
// only guarantees the sequential property: once a request is stored, a later
// overlapping submission is rejected.
func (s *Service) Request(ctx context.Context, actor policy.Actor, start, end time.Time, reason string) (Leave, error) {
	if actor.EmployeeID == "" {
		return Leave{}, ErrNoProfile
	}
	start, end = Day(start), Day(end)
	if start.IsZero() || end.IsZero() {
		return Leave{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if end.Before(start) {
		return Leave{}, ErrInvalidRange
	}
	today := Day(s.now())
	if start.Before(today) {
		return Leave{}, ErrPastStartDate
	}

	overlap, err := s.store.HasActiveOverlap(ctx, actor.EmployeeID, start, end)
	if err != nil {
		return Leave{}, err
	}
	if overlap {
		return Leave{}, ErrOverlappingRequest
	}

	now := s.now().UTC()
	l := Leave{
		ID:         ids.New(),
		EmployeeID: actor.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(reason),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertLeave(ctx, l); err != nil {
		return Leave{}, err
	}
	return l, nil
}

// Decide applies an approver's decision to a pending request.
func (s *Service) Decide(ctx context.Context, actor policy.Actor, leaveID string, decision Status, rejectionReason string) (Leave, error) {
	if !s.policy.CanDecideLeave(actor) {
		return Leave{}, ErrAccessDenied
	}
	leaveID = strings.TrimSpace(leaveID)
	if leaveID == "" {
		return Leave{}, fmt.Errorf("%w: leave id is required", ErrInvalidInput)
	}
	if decision != StatusApproved && decision != StatusRejected {
		return Leave{}, fmt.Errorf("%w: decision must be %s or %s", ErrInvalidInput, StatusApproved, StatusRejected)
	}
	rejectionReason = strings.TrimSpace(rejectionReason)
	if decision == StatusRejected && rejectionReason == "" {
		return Leave{}, ErrRejectionReasonRequired
	}

	l, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return Leave{}, err
	}
	if l.Status != StatusPending {
		return Leave{}, ErrNotPending
	}
	if Day(l.StartDate).Before(Day(s.now())) {
		return Leave{}, ErrPastRequest
	}

	upd := StatusUpdate{
		Status:     decision,
		ApproverID: actor.UserID,
		DecidedAt:  s.now().UTC(),
	}
	if decision == StatusRejected {
		upd.RejectionReason = rejectionReason
	}
	return s.store.UpdateLeaveStatus(ctx, leaveID, upd)
}

// Cancel withdraws the caller's own pending request before it starts. A
// request owned by someone else yields the same ErrNotFound as a missing id
// so existence never leaks.
func (s *Service) Cancel(ctx context.Context, actor policy.Actor, leaveID string) error {
	leaveID = strings.TrimSpace(leaveID)
	if leaveID == "" {
		return fmt.Errorf("%w: leave id is required", ErrInvalidInput)
	}
	l, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if actor.EmployeeID == "" || l.EmployeeID != actor.EmployeeID {
		return ErrNotFound
	}
	if l.Status != StatusPending {
		return ErrNotCancellable
	}
	if !Day(l.StartDate).After(Day(s.now())) {
		return ErrAlreadyStarted
	}
	// Deletion is fine here: nothing downstream references a cancelled
	// request.
	return s.store.DeleteLeave(ctx, leaveID)
}

// Get returns one request, collapsing forbidden reads into ErrNotFound.
func (s *Service) Get(ctx context.Context, actor policy.Actor, leaveID string) (Leave, error) {
	leaveID = strings.TrimSpace(leaveID)
	if leaveID == "" {
		return Leave{}, fmt.Errorf("%w: leave id is required", ErrInvalidInput)
	}
	l, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return Leave{}, err
	}
	if !s.policy.Allows(actor, policy.ActionRead, l.EmployeeID) {
		return Leave{}, ErrNotFound
	}
	return l, nil
}

// List returns a page of requests. The employee filter is forced through the
// policy scope before the query is built.
func (s *Service) List(ctx context.Context, actor policy.Actor, f Filter, page, limit int) ([]Leave, int, error) {
	f.EmployeeID = s.policy.ScopeEmployeeFilter(actor, f.EmployeeID)
	if f.EmployeeID == "" && actor.Role == policy.RoleEmployee && !actor.IsAdmin {
		return nil, 0, ErrNoProfile
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 30
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.store.ListLeaves(ctx, f, (page-1)*limit, limit)
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"peopleops.org/internal/leave"
)

var _ leave.Store = (*Store)(nil)

const leaveColumns = `id, employee_id, start_date, end_date, reason, status,
	rejection_reason, approver_id, decided_at, created_at, updated_at`

func (s *Store) InsertLeave(ctx context.Context, l leave.Leave) error {
	_, err := s.db.ExecContext(ctx, `
		insert into leave_requests(`+leaveColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, l.ID, l.EmployeeID, l.StartDate, l.EndDate, l.Reason, l.Status,
		l.RejectionReason, l.ApproverID, l.DecidedAt, l.CreatedAt)
	return err
}

func (s *Store) GetLeave(ctx context.Context, id string) (leave.Leave, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+leaveColumns+` from leave_requests where id = $1`, id)
	return scanLeave(row)
}

// HasActiveOverlap checks the closed-interval intersection against requests
// that still occupy their dates (Pending or Approved).
func (s *Store) HasActiveOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		select exists (
			select 1 from leave_requests
			where employee_id = $1
			and status in ('Pending', 'Approved')
			and start_date <= $3
			and end_date >= $2
		)
	`, employeeID, leave.Day(start), leave.Day(end)).Scan(&exists)
	return exists, err
}

// UpdateLeaveStatus is conditional on the request still being Pending. When
// the conditional update matches no row a follow-up read tells a missing
// request apart from an already-decided one.
func (s *Store) UpdateLeaveStatus(ctx context.Context, id string, upd leave.StatusUpdate) (leave.Leave, error) {
	row := s.db.QueryRowContext(ctx, `
		update leave_requests
		set status = $2, approver_id = $3, rejection_reason = $4,
			decided_at = $5, updated_at = $5
		where id = $1 and status = 'Pending'
		returning `+leaveColumns,
		id, upd.Status, upd.ApproverID, upd.RejectionReason, upd.DecidedAt)
	l, err := scanLeave(row)
	if errors.Is(err, leave.ErrNotFound) {
		if _, getErr := s.GetLeave(ctx, id); getErr == nil {
			return leave.Leave{}, leave.ErrNotPending
		}
		return leave.Leave{}, leave.ErrNotFound
	}
	return l, err
}

func (s *Store) DeleteLeave(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from leave_requests where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) ListLeaves(ctx context.Context, f leave.Filter, offset, limit int) ([]leave.Leave, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		select count(*) from leave_requests
		where ($1 = '' or employee_id = $1) and ($2 = '' or status = $2)
	`, f.EmployeeID, string(f.Status)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+leaveColumns+`
		from leave_requests
		where ($1 = '' or employee_id = $1) and ($2 = '' or status = $2)
		order by created_at desc, id
		offset $3 limit $4
	`, f.EmployeeID, string(f.Status), offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []leave.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func scanLeave(row rowScanner) (leave.Leave, error) {
	var l leave.Leave
	var reason, rejection, approver sql.NullString
	var decided sql.NullTime
	err := row.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &reason,
		&l.Status, &rejection, &approver, &decided, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Leave{}, leave.ErrNotFound
	}
	if err != nil {
		return leave.Leave{}, err
	}
	l.Reason = reason.String
	l.RejectionReason = rejection.String
	l.ApproverID = approver.String
	if decided.Valid {
		t := decided.Time.UTC()
		l.DecidedAt = &t
	}
	l.StartDate = l.StartDate.UTC()
	l.EndDate = l.EndDate.UTC()
	return l, nil
}

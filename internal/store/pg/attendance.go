package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"peopleops.org/internal/attendance"
)

var _ attendance.Store = (*Store)(nil)

// InsertClockIn relies on the (employee_id, date) unique key: on conflict the
// insert affects zero rows and the caller sees the duplicate error. No
// read-then-write sequence, so concurrent clock-ins cannot both win.
func (s *Store) InsertClockIn(ctx context.Context, r attendance.Record) error {
	res, err := s.db.ExecContext(ctx, `
		insert into attendance_records(id, employee_id, date, clock_in, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $5)
		on conflict (employee_id, date) do nothing
	`, r.ID, r.EmployeeID, r.Date, r.ClockIn, r.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return attendance.ErrDuplicateDay
	}
	return nil
}

func (s *Store) GetDay(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, employee_id, date, clock_in, clock_out, created_at, updated_at
		from attendance_records
		where employee_id = $1 and date = $2
	`, employeeID, attendance.Day(date))
	return scanAttendance(row)
}

// SetClockOut is conditional on clock_out still being unset; a lost race
// surfaces as ErrAlreadyClockedOut instead of an overwrite.
func (s *Store) SetClockOut(ctx context.Context, employeeID string, date time.Time, at time.Time) (attendance.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		update attendance_records
		set clock_out = $3, updated_at = $3
		where employee_id = $1 and date = $2 and clock_out is null
		returning id, employee_id, date, clock_in, clock_out, created_at, updated_at
	`, employeeID, attendance.Day(date), at)
	rec, err := scanAttendance(row)
	if errors.Is(err, attendance.ErrNotFound) {
		return attendance.Record{}, attendance.ErrAlreadyClockedOut
	}
	return rec, err
}

func (s *Store) ListRecords(ctx context.Context, f attendance.Filter, offset, limit int) ([]attendance.Record, int, error) {
	where := `where ($1 = '' or a.employee_id = $1)
		and ($2 = '' or e.department = $2)
		and ($3::date is null or a.date >= $3)
		and ($4::date is null or a.date <= $4)`
	args := []any{f.EmployeeID, f.Department, nullDay(f.From), nullDay(f.To)}

	var total int
	err := s.db.QueryRowContext(ctx, `
		select count(*)
		from attendance_records a
		join employees e on e.id = a.employee_id
		`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.employee_id, a.date, a.clock_in, a.clock_out, a.created_at, a.updated_at
		from attendance_records a
		join employees e on e.id = a.employee_id
		`+where+`
		order by a.date desc, a.employee_id
		offset $5 limit $6
	`, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (attendance.Record, error) {
	var r attendance.Record
	var clockIn, clockOut sql.NullTime
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Date, &clockIn, &clockOut, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, err
	}
	if clockIn.Valid {
		t := clockIn.Time.UTC()
		r.ClockIn = &t
	}
	if clockOut.Valid {
		t := clockOut.Time.UTC()
		r.ClockOut = &t
	}
	r.Date = r.Date.UTC()
	return r, nil
}

func nullDay(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return attendance.Day(t)
}

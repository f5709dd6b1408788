package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"peopleops.org/internal/payroll"
)

var _ payroll.Store = (*Store)(nil)

const payrollColumns = `id, employee_id, month, year, basic, allowance,
	deductions, tax, net_pay, paid_on, payslip_url, created_at, updated_at`

// InsertPayroll relies on the (employee_id, month, year) unique key so a
// cycle run can never re-create a period that already exists.
func (s *Store) InsertPayroll(ctx context.Context, r payroll.Record) error {
	res, err := s.db.ExecContext(ctx, `
		insert into payroll_records(`+payrollColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		on conflict (employee_id, month, year) do nothing
	`, r.ID, r.EmployeeID, r.Month, r.Year, r.Basic, r.Allowance,
		r.Deductions, r.Tax, r.NetPay, r.PaidOn, r.PayslipURL, r.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payroll.ErrDuplicatePeriod
	}
	return nil
}

func (s *Store) GetPayroll(ctx context.Context, id string) (payroll.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+payrollColumns+` from payroll_records where id = $1`, id)
	return scanPayroll(row)
}

func (s *Store) GetPayrollByPeriod(ctx context.Context, employeeID string, month, year int) (payroll.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+payrollColumns+` from payroll_records
		where employee_id = $1 and month = $2 and year = $3
	`, employeeID, month, year)
	return scanPayroll(row)
}

func (s *Store) ExistingForPeriod(ctx context.Context, employeeIDs []string, month, year int) ([]string, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(employeeIDs))
	args := []any{month, year}
	for i, id := range employeeIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	rows, err := s.db.QueryContext(ctx, `
		select employee_id from payroll_records
		where month = $1 and year = $2
		and employee_id in (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdatePayroll is conditional on the record still being unpaid. Net pay is
// recomputed from the updated components in the same statement.
func (s *Store) UpdatePayroll(ctx context.Context, id string, upd payroll.Update) (payroll.Record, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Basic != nil {
		add("basic", *upd.Basic)
	}
	if upd.Allowance != nil {
		add("allowance", *upd.Allowance)
	}
	if upd.Deductions != nil {
		add("deductions", *upd.Deductions)
	}
	if upd.Tax != nil {
		add("tax", *upd.Tax)
	}
	if upd.PaidOn != nil {
		add("paid_on", *upd.PaidOn)
	}
	sets = append(sets, "net_pay = basic + allowance - deductions - tax")

	row := s.db.QueryRowContext(ctx, `
		update payroll_records set `+strings.Join(sets, ", ")+`
		where id = $1 and paid_on is null
		returning `+payrollColumns, args...)
	r, err := scanPayroll(row)
	if errors.Is(err, payroll.ErrNotFound) {
		if _, getErr := s.GetPayroll(ctx, id); getErr == nil {
			return payroll.Record{}, payroll.ErrAlreadyPaid
		}
		return payroll.Record{}, payroll.ErrNotFound
	}
	return r, err
}

func (s *Store) DeletePayroll(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from payroll_records where id = $1 and paid_on is null
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.GetPayroll(ctx, id); getErr == nil {
			return payroll.ErrAlreadyPaid
		}
		return payroll.ErrNotFound
	}
	return nil
}

func (s *Store) ListPayrolls(ctx context.Context, f payroll.Filter, offset, limit int) ([]payroll.Record, int, error) {
	where := `where ($1 = '' or employee_id = $1)
		and ($2 = 0 or month = $2)
		and ($3 = 0 or year = $3)`
	args := []any{f.EmployeeID, f.Month, f.Year}

	var total int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from payroll_records `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+payrollColumns+`
		from payroll_records `+where+`
		order by year desc, month desc, employee_id
		offset $4 limit $5
	`, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []payroll.Record
	for rows.Next() {
		r, err := scanPayroll(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func scanPayroll(row rowScanner) (payroll.Record, error) {
	var r payroll.Record
	var paidOn sql.NullTime
	var payslip sql.NullString
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Month, &r.Year, &r.Basic,
		&r.Allowance, &r.Deductions, &r.Tax, &r.NetPay, &paidOn, &payslip,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.Record{}, err
	}
	if paidOn.Valid {
		t := paidOn.Time.UTC()
		r.PaidOn = &t
	}
	r.PayslipURL = payslip.String
	return r, nil
}

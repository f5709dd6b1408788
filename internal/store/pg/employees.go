package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"peopleops.org/internal/employee"
)

var _ employee.Store = (*Store)(nil)

const employeeColumns = `id, user_id, first_name, last_name, department, title,
	joining_date, documents, salary_base, salary_allowance, salary_deductions,
	created_at, updated_at`

func (s *Store) InsertEmployee(ctx context.Context, e employee.Employee) error {
	docs, err := json.Marshal(e.Documents)
	if err != nil {
		return err
	}
	var base, allowance, deductions sql.NullInt64
	if e.Salary != nil {
		base = sql.NullInt64{Int64: e.Salary.Base, Valid: true}
		allowance = sql.NullInt64{Int64: e.Salary.Allowance, Valid: true}
		deductions = sql.NullInt64{Int64: e.Salary.Deductions, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		insert into employees(`+employeeColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		on conflict (user_id) do nothing
	`, e.ID, e.UserID, e.FirstName, e.LastName, e.Department, e.Title,
		e.JoiningDate, docs, base, allowance, deductions, e.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return employee.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+employeeColumns+` from employees where id = $1`, id)
	return scanEmployee(row)
}

func (s *Store) GetEmployeeByUser(ctx context.Context, userID string) (employee.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+employeeColumns+` from employees where user_id = $1`, userID)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context, f employee.Filter, offset, limit int) ([]employee.Employee, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		select count(*) from employees where ($1 = '' or department = $1)
	`, f.Department).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+employeeColumns+`
		from employees
		where ($1 = '' or department = $1)
		order by last_name, first_name, id
		offset $2 limit $3
	`, f.Department, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// UpdateEmployee builds the set clause from the non-nil fields only; an empty
// update still touches updated_at so the caller gets a fresh row back.
func (s *Store) UpdateEmployee(ctx context.Context, id string, upd employee.Update) (employee.Employee, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Department != nil {
		add("department", *upd.Department)
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Salary != nil {
		add("salary_base", upd.Salary.Base)
		add("salary_allowance", upd.Salary.Allowance)
		add("salary_deductions", upd.Salary.Deductions)
	}
	if upd.Documents != nil {
		docs, err := json.Marshal(upd.Documents)
		if err != nil {
			return employee.Employee{}, err
		}
		add("documents", docs)
	}

	row := s.db.QueryRowContext(ctx, `
		update employees set `+strings.Join(sets, ", ")+`
		where id = $1
		returning `+employeeColumns, args...)
	return scanEmployee(row)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from employees where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var e employee.Employee
	var docs []byte
	var base, allowance, deductions sql.NullInt64
	err := row.Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Department,
		&e.Title, &e.JoiningDate, &docs, &base, &allowance, &deductions,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return employee.Employee{}, employee.ErrNotFound
	}
	if err != nil {
		return employee.Employee{}, err
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &e.Documents); err != nil {
			return employee.Employee{}, err
		}
	}
	if base.Valid {
		e.Salary = &employee.Salary{
			Base:       base.Int64,
			Allowance:  allowance.Int64,
			Deductions: deductions.Int64,
		}
	}
	e.JoiningDate = e.JoiningDate.UTC()
	return e, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"peopleops.org/internal/performance"
)

var _ performance.Store = (*Store)(nil)

const goalColumns = `id, employee_id, title, description, target_date, status,
	created_at, updated_at`

// InsertGoals writes a submission in one transaction so a failure midway
// leaves no partial batch behind.
func (s *Store) InsertGoals(ctx context.Context, goals []performance.Goal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, g := range goals {
		_, err := tx.ExecContext(ctx, `
			insert into performance_goals(`+goalColumns+`)
			values ($1, $2, $3, $4, $5, $6, $7, $7)
		`, g.ID, g.EmployeeID, g.Title, g.Description, g.TargetDate, g.Status, g.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListGoals(ctx context.Context, employeeID string) ([]performance.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+goalColumns+` from performance_goals
		where employee_id = $1
		order by created_at, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []performance.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoalStatus matches on both ids so a goal id cannot be replayed
// against another employee's plan.
func (s *Store) UpdateGoalStatus(ctx context.Context, employeeID, goalID string, status performance.Status, updatedAt time.Time) (performance.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		update performance_goals
		set status = $3, updated_at = $4
		where id = $2 and employee_id = $1
		returning `+goalColumns+`
	`, employeeID, goalID, status, updatedAt)
	return scanGoal(row)
}

func scanGoal(row rowScanner) (performance.Goal, error) {
	var g performance.Goal
	err := row.Scan(&g.ID, &g.EmployeeID, &g.Title, &g.Description, &g.TargetDate,
		&g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return performance.Goal{}, performance.ErrNotFound
	}
	if err != nil {
		return performance.Goal{}, err
	}
	return g, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"peopleops.org/internal/auth"
)

var _ auth.UserStore = (*Store)(nil)

const userColumns = `id, username, email, password_hash, role, is_admin,
	last_login, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u auth.User) error {
	res, err := s.db.ExecContext(ctx, `
		insert into users(`+userColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		on conflict (email) do nothing
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsAdmin,
		u.LastLogin, u.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrAlreadyExists
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update users set last_login = $2, updated_at = $2 where id = $1
	`, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (auth.User, error) {
	var u auth.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsAdmin, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	return u, nil
}

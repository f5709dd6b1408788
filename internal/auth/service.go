package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peopleops.org/internal/ids"
	"peopleops.org/internal/policy"
)

const TokenTTL = 8 * time.Hour

// UserStore describes persistence operations required by the auth subsystem.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	FindUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// EmployeeResolver maps a user account to its employee profile id. It returns
// an empty id with a nil error when no profile exists. Implemented by the
// employee service; kept as an interface to avoid a package cycle.
type EmployeeResolver interface {
	EmployeeIDByUser(ctx context.Context, userID string) (string, error)
}

// Service handles account registration and credential login.
type Service struct {
	users     UserStore
	employees EmployeeResolver
}

func NewService(users UserStore, employees EmployeeResolver) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	return &Service{users: users, employees: employees}, nil
}

// Register creates a login account with the given role.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(role) == "" {
		role = string(policy.RoleEmployee)
	}
	parsed, err := policy.ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	u := User{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         string(parsed),
		IsAdmin:      parsed == policy.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token. The employee profile
// id, when one exists, is embedded in the claims so engines can scope
// self-service access without an extra lookup per request.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	employeeID := ""
	if s.employees != nil {
		id, err := s.employees.EmployeeIDByUser(ctx, u.ID)
		if err != nil {
			return User{}, "", err
		}
		employeeID = id
	}

	token, err := GenerateToken(u.ID, u.Role, employeeID, u.IsAdmin, TokenTTL)
	if err != nil {
		return User{}, "", err
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err == nil {
		u.LastLogin = &now
	}
	return u, token, nil
}

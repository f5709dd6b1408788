package auth

import "time"

// User is a login account. The employee profile, when one exists, references
// the user by id; the relation is a plain foreign key resolved on demand.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsAdmin      bool       `json:"isAdmin"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Principal is the resolved identity attached to each authenticated request.
type Principal struct {
	UserID     string
	EmployeeID string
	Role       string
	IsAdmin    bool
}

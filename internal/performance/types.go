package performance

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a performance goal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus normalizes and validates a caller-supplied status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.TrimSpace(strings.ToUpper(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Goal is one performance goal assigned to an employee.
type Goal struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetDate  time.Time `json:"targetDate"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GoalInput is one goal as submitted by a caller. Status is optional and
// defaults to PENDING.
type GoalInput struct {
	Title       string
	Description string
	TargetDate  time.Time
	Status      string
}

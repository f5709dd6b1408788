package leave

import "time"

// Status is the leave-request lifecycle state. Pending is the only
// non-terminal state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// Active reports whether a request in this state still occupies its date
// interval for overlap purposes.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Leave is one leave request. Start and end dates are UTC day boundaries and
// the interval is inclusive on both ends.
type Leave struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Reason          string     `json:"reason,omitempty"`
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ApproverID      string     `json:"approverId,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Filter narrows leave listings. Zero fields are ignored.
type Filter struct {
	EmployeeID string
	Status     Status
}

// Overlaps reports whether the closed intervals [s1,e1] and [s2,e2] intersect.
// Equal boundary dates count as overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// Day truncates t to its UTC day boundary.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

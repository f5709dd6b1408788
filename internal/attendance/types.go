package attendance

import "time"

// Status is the derived per-day presence state.
type Status string

const (
	StatusNotClockedIn Status = "NotClockedIn"
	StatusClockedIn    Status = "ClockedIn"
	StatusClockedOut   Status = "ClockedOut"
)

// Record is one employee-day of attendance. At most one record exists per
// (employee, date); it is created by the first clock-in.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Date       time.Time  `json:"date"` // UTC, truncated to the day boundary
	ClockIn    *time.Time `json:"clockIn,omitempty"`
	ClockOut   *time.Time `json:"clockOut,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// StatusOf derives the presence state from the record's timestamps.
func StatusOf(r Record) Status {
	switch {
	case r.ClockOut != nil:
		return StatusClockedOut
	case r.ClockIn != nil:
		return StatusClockedIn
	}
	return StatusNotClockedIn
}

// Filter narrows attendance listings. Zero fields are ignored.
type Filter struct {
	EmployeeID string
	Department string
	From       time.Time
	To         time.Time
}

// Day truncates t to its UTC day boundary.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

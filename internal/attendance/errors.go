package attendance

import "errors"

var (
	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrNoClockInFound    = errors.New("no clock-in found for today")
	ErrMustClockInFirst  = errors.New("must clock in first")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
	ErrNotFound          = errors.New("attendance record not found")
	ErrNoProfile         = errors.New("employee profile not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrDuplicateDay is returned by stores when the (employee, date) unique
	// key is violated.
	ErrDuplicateDay = errors.New("attendance record already exists for this day")
)

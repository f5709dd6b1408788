package payroll

import "errors"

var (
	ErrUnauthorized = errors.New("role not permitted to manage payroll")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year is implausible")
	ErrEmptyBatch   = errors.New("employee batch is empty")
	ErrNotFound     = errors.New("payroll record not found")
	ErrAlreadyPaid  = errors.New("payroll record is paid and immutable")
	ErrNoProfile    = errors.New("employee profile not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicatePeriod is returned by stores when the (employee, month,
	// year) unique key is violated.
	ErrDuplicatePeriod = errors.New("payroll record already exists for this period")

	// ErrCycleFailed is returned when no employee in a non-empty batch
	// succeeded.
	ErrCycleFailed = errors.New("payroll cycle failed for all employees")
)

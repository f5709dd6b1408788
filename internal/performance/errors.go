package performance

import "errors"

var (
	ErrEmptyGoals          = errors.New("at least one goal is required")
	ErrTitleTooShort       = errors.New("goal title must be at least 3 characters")
	ErrDescriptionTooShort = errors.New("goal description must be at least 10 characters")
	ErrTargetDateNotFuture = errors.New("goal target date must be in the future")
	ErrInvalidStatus       = errors.New("invalid goal status")
	ErrNotFound            = errors.New("goal not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidInput        = errors.New("invalid input")
)

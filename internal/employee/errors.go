package employee

import "errors"

var (
	ErrNotFound      = errors.New("employee not found")
	ErrAlreadyExists = errors.New("employee profile already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAccessDenied  = errors.New("access denied")
)

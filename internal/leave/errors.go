package leave

import "errors"

var (
	ErrInvalidRange            = errors.New("end date precedes start date")
	ErrPastStartDate           = errors.New("start date is in the past")
	ErrOverlappingRequest      = errors.New("overlapping leave request exists")
	ErrNotFound                = errors.New("leave request not found")
	ErrNotPending              = errors.New("leave request is no longer pending")
	ErrPastRequest             = errors.New("leave request has already started")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrNotCancellable          = errors.New("leave request cannot be cancelled")
	ErrAlreadyStarted          = errors.New("leave has already started")
	ErrNoProfile               = errors.New("employee profile not found")
	ErrAccessDenied            = errors.New("access denied")
	ErrInvalidInput            = errors.New("invalid input")
)

package colloqui

import "errors"

var (
	ErrSchedulingWindowClosed = errors.New("scheduling window closed")
	ErrInvalidDuration        = errors.New("invalid appointment duration")
	ErrInvalidTimeRange       = errors.New("invalid time range")
	ErrInvalidWeekday         = errors.New("invalid weekday")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidMode            = errors.New("invalid meeting mode")
	ErrInvalidLink            = errors.New("invalid meeting link")

	ErrBlockNotFound     = errors.New("meeting block not found")
	ErrBlockNotAvailable = errors.New("meeting block not available")
	ErrAlreadyRequested  = errors.New("appointment already requested")
	ErrRequestNotFound   = errors.New("appointment request not found")
	ErrInvalidStatus     = errors.New("appointment request has wrong status")
	ErrMessageRequired   = errors.New("message required")
	ErrBlockHasRequests  = errors.New("meeting block has requests")
	ErrAccessDenied      = errors.New("access denied")
)

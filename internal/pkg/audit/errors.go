package audit

import "errors"

var (
	ErrJobAlreadyRunning  = errors.New("payments check job already running")
	ErrJobNotRunning      = errors.New("payments check job not running")
	ErrInvalidPeriod      = errors.New("invalid payments check period")
	ErrChatAlreadyPresent = errors.New("chat already present in payments check job")
	ErrChatNotPresent     = errors.New("chat not present in payments check job")
)

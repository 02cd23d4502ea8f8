package service

import "errors"

// Service errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrStartup    = errors.New("service startup failed")
)

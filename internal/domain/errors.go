package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotImplemented  = errors.New("not implemented")
	ErrFaulted         = errors.New("detector faulted")
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidModel    = errors.New("invalid wake-word model")
)

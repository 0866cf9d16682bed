package services

import "errors"

// Failure taxonomy returned by MatchService. Callers test with errors.Is;
// the wrapped message carries the detail.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
)

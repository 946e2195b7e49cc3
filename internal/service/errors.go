package service

import "errors"

// ErrInvalidCredentials indicates that provided login credentials are
// incorrect. Callers must not learn whether the username exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError marks malformed or unacceptable client input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError marks a uniqueness violation surfaced as a client error.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError marks a missing entity.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }
func conflictErr(msg string) error   { return &ConflictError{Msg: msg} }
func notFoundErr(msg string) error   { return &NotFoundError{Msg: msg} }

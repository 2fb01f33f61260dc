package service

import (
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/pkg/errors"
)

// ValidationError carries per-field messages
type ValidationError = validation.Error

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Error is a classified failure with a message meant for the caller
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }
func forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }
func badRequest(msg string) error   { return &Error{Kind: ErrBadRequest, Message: msg} }
func unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

// fromRepo turns a repository not-found into a service not-found named
// after what, and wraps anything else
func fromRepo(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(what + " not found")
	}
	return errors.Wrap(err, "failed to access "+what)
}

// onDuplicate turns a unique violation into a field message
func onDuplicate(err error, field, msg string) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return validation.Field(field, msg)
	}
	return err
}

// validationErrors collects field messages; Err returns nil when empty
type validationErrors = validation.FieldErrors

// Package apperr defines the error kinds shared by the chore, collaboration
// and scoring services. Callers match them with errors.Is.
package apperr

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrOfferClosed     = errors.New("swap offer is no longer available")
	ErrUnauthenticated = errors.New("no current user")
)

// Package apperr defines sentinel errors shared across vaultid packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnknownScheme = errors.New("unknown id scheme")
	ErrTransaction   = errors.New("transaction failed")
)

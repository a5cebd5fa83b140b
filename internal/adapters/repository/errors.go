package repository

import "errors"

// Sentinel kinds for ranklist store errors.
var (
	ErrNotFound  = errors.New("ranklist not found")
	ErrInvalidID = errors.New("invalid ranklist id")
	ErrNilUpdate = errors.New("update produced no ranklist")
)

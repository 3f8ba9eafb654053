// Package apperr holds the sentinel errors shared across the planner.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBusy          = errors.New("operation already in flight")

	// ErrValidation marks rejected user input (form fields, blank chat input).
	ErrValidation = errors.New("validation failed")

	// ErrBridgeUnavailable marks a failed conversation with the language model:
	// transport failure, non-success status or an undecodable response.
	ErrBridgeUnavailable = errors.New("assistant unavailable")

	ErrMalformedToolCall = errors.New("malformed tool call")
	ErrInvalidTimeRange  = errors.New("end must be after start")

	ErrSyncFailed = errors.New("external calendar sync failed")
)

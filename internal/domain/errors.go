package domain

import "errors"

var (
	// ErrMissingRecordID signals a raw record without a usable identifier.
	// The record is skipped during load; the rest of the batch proceeds.
	ErrMissingRecordID = errors.New("record missing id")
	// ErrBackendUnavailable signals an absent or unconfigured external capability.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendCallFailed signals a transient failure of a configured capability.
	// The capability stays enabled; the next call may succeed.
	ErrBackendCallFailed = errors.New("backend call failed")
	// ErrInvalidQuery signals an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexNotReady signals a semantic index that was never built or loaded.
	ErrIndexNotReady = errors.New("semantic index not ready")
)

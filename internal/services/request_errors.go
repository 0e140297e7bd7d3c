package services

import "errors"

var (
	// ErrRequestRepositoryMissing indicates the request repository dependency is absent.
	ErrRequestRepositoryMissing = errors.New("request service: repository is not configured")
	// ErrRequestInvalidInput signals missing or malformed request fields.
	ErrRequestInvalidInput = errors.New("request service: invalid input")
	// ErrRequestNotFound indicates no request exists for the supplied id.
	ErrRequestNotFound = errors.New("request service: request not found")
	// ErrRequestConflict indicates a request with the same id already exists.
	ErrRequestConflict = errors.New("request service: request already exists")
	// ErrRequestInvalidStatus signals a status other than new, in_progress, or completed.
	ErrRequestInvalidStatus = errors.New("request service: invalid status")
)

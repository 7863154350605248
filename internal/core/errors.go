package core

import (
	"errors"
)

var (
	// ErrValidation covers malformed or missing input. It is always raised
	// before a transaction opens.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotFoundInQueue means the job exists but has no active queue entry.
	ErrNotFoundInQueue = errors.New("job not found in queue")

	// ErrForeignKey means the operation would break a referential invariant.
	ErrForeignKey = errors.New("foreign key constraint violation")

	// ErrConnectionFailed means adapter I/O failed or timed out.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInternal is an unexpected storage or transport fault.
	ErrInternal = errors.New("internal error")
)

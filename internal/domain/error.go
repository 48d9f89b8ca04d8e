package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound               = errors.New("entity not found")
	ErrAlreadyExists          = errors.New("entity already exists")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInactivePackage        = errors.New("package definition is inactive")
	ErrInvalidStateTransition = errors.New("invalid purchase state transition")
	ErrOverpayment            = errors.New("payment exceeds pending amount")
	ErrLockNotAcquired        = errors.New("lock not acquired")

	// Infrastructure-level errors surfaced by repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid transaction context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

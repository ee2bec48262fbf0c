// Package store provides the transactional snapshot mirror backing a
// federation client's key-value state
package store

import (
	"errors"
	"fmt"
)

// InitError represents a failure to hydrate a federation's snapshot
// store; it is fatal to client construction
type InitError struct {
	FederationID string
	Err          error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize snapshot store for federation '%s': %v", e.FederationID, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// IsInitError checks if an error is a snapshot store init error
func IsInitError(err error) bool {
	var initErr *InitError
	return errors.As(err, &initErr)
}

// CommitError represents a failed durable write during commit. The
// mirror is left unchanged: the transaction's mutations are only adopted
// after the blob write succeeds.
type CommitError struct {
	FederationID string
	Err          error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit snapshot for federation '%s': %v", e.FederationID, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError checks if an error is a snapshot commit error
func IsCommitError(err error) bool {
	var commitErr *CommitError
	return errors.As(err, &commitErr)
}

// ErrTxFinished is returned when operating on a committed transaction
var ErrTxFinished = errors.New("transaction already committed")

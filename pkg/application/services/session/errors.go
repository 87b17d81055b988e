package session

import (
	"errors"
	"fmt"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

var (
	// ErrApprovedQuantityInvalid blocks opening a session for a demand without a usable approval
	ErrApprovedQuantityInvalid = errors.New("approved quantity missing or invalid")
	// ErrSessionNotFound is returned for unknown session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned for operations on a submitted or cancelled session
	ErrSessionClosed = errors.New("session closed")
	// ErrSubmitInFlight is returned while a submission is outstanding
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrStaleSnapshot is returned when fresh stock no longer covers a location allocation
	ErrStaleSnapshot = errors.New("stock changed since session opened")
)

// StaleStockError reports a location whose stock fell below its allocation after the snapshot
type StaleStockError struct {
	LocationID entities.LocationID
	Allocated  entities.Quantity
	Available  entities.Quantity
}

func (e *StaleStockError) Error() string {
	return fmt.Sprintf("location %d now holds %d, %d allocated", e.LocationID, e.Available, e.Allocated)
}

func (e *StaleStockError) Unwrap() error {
	return ErrStaleSnapshot
}

// SubmitError wraps a remote submission failure. The plan is preserved for retry.
type SubmitError struct {
	DemandID entities.DemandID
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit fulfillment for %s: %v", e.DemandID, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

package allocation

import (
	"errors"
	"fmt"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Operation names a plan mutation for error reporting
type Operation string

const (
	OpAddLocation       Operation = "add_location"
	OpEditLocation      Operation = "edit_location"
	OpRemoveLocation    Operation = "remove_location"
	OpSetExternal       Operation = "set_external"
	OpValidateForSubmit Operation = "validate_for_submit"
)

// Kind classifies a rejected operation
type Kind string

const (
	KindInvalidQuantity   Kind = "InvalidQuantity"
	KindCapacityExceeded  Kind = "CapacityExceeded"
	KindDuplicateLocation Kind = "DuplicateLocation"
	KindNotFound          Kind = "NotFound"
)

var (
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrDuplicateLocation    = errors.New("duplicate location")
	ErrNotFound             = errors.New("allocation not found")
	ErrConservationMismatch = errors.New("allocated quantity does not match approved quantity")
)

var kindErrors = map[Kind]error{
	KindInvalidQuantity:   ErrInvalidQuantity,
	KindCapacityExceeded:  ErrCapacityExceeded,
	KindDuplicateLocation: ErrDuplicateLocation,
	KindNotFound:          ErrNotFound,
}

// Error is a local validation failure. The plan it was raised against is unchanged.
type Error struct {
	Operation Operation
	Target    Target
	Kind      Kind
	Message   string
	// Max is the legal maximum for the target when Kind is CapacityExceeded
	Max entities.Quantity
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Operation, e.Target, e.Message)
}

// Unwrap lets errors.Is match the sentinel for the error's kind
func (e *Error) Unwrap() error {
	return kindErrors[e.Kind]
}

func invalidQuantity(op Operation, target Target, format string, args ...any) *Error {
	return &Error{Operation: op, Target: target, Kind: KindInvalidQuantity, Message: fmt.Sprintf(format, args...)}
}

func capacityExceeded(op Operation, target Target, qty, limit entities.Quantity) *Error {
	return &Error{
		Operation: op,
		Target:    target,
		Kind:      KindCapacityExceeded,
		Message:   fmt.Sprintf("quantity %d exceeds maximum %d", qty, limit),
		Max:       limit,
	}
}

// ConservationError blocks submission until allocations sum to the approved quantity
type ConservationError struct {
	Approved  entities.Quantity
	Allocated entities.Quantity
	// Delta is approved minus allocated: positive is unallocated, negative is over
	Delta entities.Quantity
}

func (e *ConservationError) Error() string {
	if e.Delta > 0 {
		return fmt.Sprintf("%d units unallocated (allocated %d of %d)", e.Delta, e.Allocated, e.Approved)
	}
	return fmt.Sprintf("%d units over (allocated %d of %d)", -e.Delta, e.Allocated, e.Approved)
}

func (e *ConservationError) Unwrap() error {
	return ErrConservationMismatch
}

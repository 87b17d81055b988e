package dto

import (
	"errors"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
)

// TargetView is the presentation row for one allocation target
type TargetView struct {
	Kind         string               `json:"kind"`
	LocationID   *entities.LocationID `json:"location_id,omitempty"`
	Channel      entities.Channel     `json:"channel,omitempty"`
	Name         string               `json:"name,omitempty"`
	CurrentStock string               `json:"current_stock,omitempty"`
	Allocated    entities.Quantity    `json:"allocated"`
	Capacity     entities.Quantity    `json:"capacity"`
}

// PlanView is the read-only query surface over a session's current plan
type PlanView struct {
	SessionID      string            `json:"session_id"`
	DemandID       entities.DemandID `json:"demand_id"`
	ItemID         entities.ItemID   `json:"item_id"`
	State          string            `json:"state"`
	ApprovedQty    entities.Quantity `json:"approved_qty"`
	TotalAllocated entities.Quantity `json:"total_allocated"`
	TotalRemaining entities.Quantity `json:"total_remaining"`
	Submitting     bool              `json:"submitting"`
	Targets        []TargetView      `json:"targets"`
}

// Target finds the row for a location or channel
func (v PlanView) Target(target allocation.Target) (TargetView, bool) {
	for _, row := range v.Targets {
		if target.IsChannel() && row.Channel == target.Channel {
			return row, true
		}
		if !target.IsChannel() && row.LocationID != nil && *row.LocationID == target.Location {
			return row, true
		}
	}
	return TargetView{}, false
}

// ValidationError is the typed error payload surfaced to the presentation layer
type ValidationError struct {
	Operation string             `json:"operation"`
	Target    string             `json:"target,omitempty"`
	Kind      string             `json:"kind"`
	Message   string             `json:"message"`
	Max       *entities.Quantity `json:"max,omitempty"`
	Delta     *entities.Quantity `json:"delta,omitempty"`
}

// NewValidationError converts allocation failures to their payload form
func NewValidationError(err error) (ValidationError, bool) {
	var allocErr *allocation.Error
	if errors.As(err, &allocErr) {
		out := ValidationError{
			Operation: string(allocErr.Operation),
			Target:    allocErr.Target.String(),
			Kind:      string(allocErr.Kind),
			Message:   allocErr.Message,
		}
		if allocErr.Kind == allocation.KindCapacityExceeded {
			limit := allocErr.Max
			out.Max = &limit
		}
		return out, true
	}

	var conservation *allocation.ConservationError
	if errors.As(err, &conservation) {
		delta := conservation.Delta
		return ValidationError{
			Operation: string(allocation.OpValidateForSubmit),
			Kind:      "ConservationMismatch",
			Message:   conservation.Error(),
			Delta:     &delta,
		}, true
	}

	return ValidationError{}, false
}

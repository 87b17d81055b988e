package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

var (
	// ErrDemandNotFound is returned when a demand does not exist
	ErrDemandNotFound = errors.New("demand not found")
	// ErrAlreadySubmitted is returned when a demand already has fulfillment records
	ErrAlreadySubmitted = errors.New("fulfillment already submitted for demand")
	// ErrRejected is returned when the store's own validation refuses the records
	ErrRejected = errors.New("fulfillment rejected")
)

// FulfillmentSubmitter persists the flattened records of a completed plan
type FulfillmentSubmitter interface {
	Submit(ctx context.Context, demandID entities.DemandID, records []entities.FulfillmentRecord) error
}

package repositories

import (
	"context"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// DemandProvider provides access to approved demands
type DemandProvider interface {
	GetDemand(ctx context.Context, demandID entities.DemandID) (*entities.Demand, error)
	GetApprovedQuantity(ctx context.Context, demandID entities.DemandID) (entities.Quantity, error)
}

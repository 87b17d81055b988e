package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand storage
type DemandRepository struct {
	mu      sync.RWMutex
	demands map[entities.DemandID]entities.Demand
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: make(map[entities.DemandID]entities.Demand),
	}
}

// Verify interface compliance
var _ repositories.DemandProvider = (*DemandRepository)(nil)

// LoadDemands loads demands into the repository, replacing any with the same id
func (r *DemandRepository) LoadDemands(demands []*entities.Demand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, demand := range demands {
		r.demands[demand.ID] = *demand
	}
	return nil
}

// GetDemand returns a copy of the demand
func (r *DemandRepository) GetDemand(_ context.Context, demandID entities.DemandID) (*entities.Demand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	demand, ok := r.demands[demandID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrDemandNotFound, demandID)
	}
	return &demand, nil
}

// GetApprovedQuantity returns the approved quantity of a demand
func (r *DemandRepository) GetApprovedQuantity(ctx context.Context, demandID entities.DemandID) (entities.Quantity, error) {
	demand, err := r.GetDemand(ctx, demandID)
	if err != nil {
		return 0, err
	}
	return demand.ApprovedQty, nil
}

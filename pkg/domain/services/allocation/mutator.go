package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Mutator applies plan operations against one session's stock snapshot
type Mutator struct {
	snapshot *entities.StockSnapshot
}

// NewMutator creates a mutator bound to an immutable stock snapshot
func NewMutator(snapshot *entities.StockSnapshot) *Mutator {
	if snapshot == nil {
		snapshot = entities.NewStockSnapshot(nil)
	}
	return &Mutator{snapshot: snapshot}
}

// Snapshot returns the stock snapshot capacities are computed against
func (m *Mutator) Snapshot() *entities.StockSnapshot {
	return m.snapshot
}

// MaxFor returns the capacity of target within plan
func (m *Mutator) MaxFor(target Target, plan Plan) entities.Quantity {
	return MaxFor(target, plan, m.snapshot)
}

// AddLocation inserts a new location allocation
func (m *Mutator) AddLocation(plan Plan, id entities.LocationID, qty entities.Quantity) (Plan, error) {
	target := LocationTarget(id)
	if qty <= 0 {
		return plan, invalidQuantity(OpAddLocation, target, "quantity must be positive, got %d", qty)
	}
	if _, exists := plan.LocationQty(id); exists {
		return plan, &Error{
			Operation: OpAddLocation,
			Target:    target,
			Kind:      KindDuplicateLocation,
			Message:   "location already allocated; edit the existing allocation instead",
		}
	}
	if limit := m.MaxFor(target, plan); qty > limit {
		return plan, capacityExceeded(OpAddLocation, target, qty, limit)
	}
	return plan.withLocation(id, qty), nil
}

// EditLocation replaces an existing location allocation. A new quantity of
// zero removes the entry.
func (m *Mutator) EditLocation(plan Plan, id entities.LocationID, qty entities.Quantity) (Plan, error) {
	target := LocationTarget(id)
	if _, exists := plan.LocationQty(id); !exists {
		return plan, &Error{
			Operation: OpEditLocation,
			Target:    target,
			Kind:      KindNotFound,
			Message:   "no allocation exists for this location",
		}
	}
	if qty < 0 {
		return plan, invalidQuantity(OpEditLocation, target, "quantity cannot be negative, got %d", qty)
	}
	if qty == 0 {
		return plan.withoutLocation(id), nil
	}
	if limit := m.MaxFor(target, plan); qty > limit {
		return plan, capacityExceeded(OpEditLocation, target, qty, limit)
	}
	return plan.withLocation(id, qty), nil
}

// RemoveLocation deletes a location allocation; removing an absent entry is a no-op
func (m *Mutator) RemoveLocation(plan Plan, id entities.LocationID) Plan {
	return plan.withoutLocation(id)
}

// SetExternal sets a channel's quantity; zero means the channel contributes nothing
func (m *Mutator) SetExternal(plan Plan, ch entities.Channel, qty entities.Quantity) (Plan, error) {
	target := ChannelTarget(ch)
	if ch.Index() < 0 {
		return plan, &Error{
			Operation: OpSetExternal,
			Target:    target,
			Kind:      KindNotFound,
			Message:   "unknown external channel",
		}
	}
	if qty < 0 {
		return plan, invalidQuantity(OpSetExternal, target, "quantity cannot be negative, got %d", qty)
	}
	if limit := m.MaxFor(target, plan); qty > limit {
		return plan, capacityExceeded(OpSetExternal, target, qty, limit)
	}
	return plan.withChannel(ch, qty), nil
}

// ValidateForSubmit requires allocations to sum exactly to the approved quantity
func ValidateForSubmit(plan Plan) error {
	if delta := plan.Remaining(); delta != 0 {
		return &ConservationError{
			Approved:  plan.approved,
			Allocated: plan.TotalAllocated(),
			Delta:     delta,
		}
	}
	return nil
}

// ToFulfillmentRecord validates the plan and projects it for persistence
func ToFulfillmentRecord(plan Plan) ([]entities.FulfillmentRecord, error) {
	if err := ValidateForSubmit(plan); err != nil {
		return nil, err
	}
	return Project(plan), nil
}

// WholeQuantity converts user input to a Quantity, rejecting fractional values
func WholeQuantity(op Operation, target Target, d decimal.Decimal) (entities.Quantity, error) {
	qty, err := entities.ParseQuantity(d)
	if err != nil {
		return 0, invalidQuantity(op, target, "%s", err.Error())
	}
	return qty, nil
}

// Package allocation splits a demand's approved quantity across stock
// locations and external procurement channels.
//
// Plans are immutable values. Every operation returns a new Plan or a typed
// error, and a rejected operation leaves the caller's plan untouched.
package allocation

import (
	"fmt"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// State is the lifecycle position of a fulfillment plan
type State int

const (
	Empty State = iota
	PartiallyAllocated
	FullyAllocated
	Submitted
)

// String method for State enum
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case PartiallyAllocated:
		return "PartiallyAllocated"
	case FullyAllocated:
		return "FullyAllocated"
	case Submitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// Plan is the in-progress allocation of one demand's approved quantity
type Plan struct {
	demandID  entities.DemandID
	approved  entities.Quantity
	locations []entities.LocationAllocation
	channels  [len(entities.Channels)]entities.Quantity
}

// NewPlan creates an empty plan scoped to a demand
func NewPlan(demand entities.Demand) (Plan, error) {
	if demand.ApprovedQty < 0 {
		return Plan{}, fmt.Errorf("approved quantity cannot be negative, got %d", demand.ApprovedQty)
	}
	return Plan{demandID: demand.ID, approved: demand.ApprovedQty}, nil
}

// DemandID returns the demand this plan sources
func (p Plan) DemandID() entities.DemandID {
	return p.demandID
}

// ApprovedQty returns the quantity the plan must source in full
func (p Plan) ApprovedQty() entities.Quantity {
	return p.approved
}

// Locations returns a copy of the location allocations in insertion order
func (p Plan) Locations() []entities.LocationAllocation {
	out := make([]entities.LocationAllocation, len(p.locations))
	copy(out, p.locations)
	return out
}

// LocationQty returns the quantity allocated from a location
func (p Plan) LocationQty(id entities.LocationID) (entities.Quantity, bool) {
	if i := p.locationIndex(id); i >= 0 {
		return p.locations[i].Quantity, true
	}
	return 0, false
}

// ChannelQty returns the quantity allocated through an external channel
func (p Plan) ChannelQty(ch entities.Channel) entities.Quantity {
	if i := ch.Index(); i >= 0 {
		return p.channels[i]
	}
	return 0
}

// TargetQty returns the current quantity held by any target
func (p Plan) TargetQty(target Target) entities.Quantity {
	if target.IsChannel() {
		return p.ChannelQty(target.Channel)
	}
	qty, _ := p.LocationQty(target.Location)
	return qty
}

// TotalAllocated sums every location and channel allocation
func (p Plan) TotalAllocated() entities.Quantity {
	var total entities.Quantity
	for _, loc := range p.locations {
		total += loc.Quantity
	}
	for _, qty := range p.channels {
		total += qty
	}
	return total
}

// Remaining returns approved minus allocated; negative means over-allocated
func (p Plan) Remaining() entities.Quantity {
	return p.approved - p.TotalAllocated()
}

// State derives the plan's lifecycle state from its totals
func (p Plan) State() State {
	total := p.TotalAllocated()
	switch {
	case total == 0:
		return Empty
	case total == p.approved:
		return FullyAllocated
	default:
		return PartiallyAllocated
	}
}

// Reset returns an empty plan for the same demand
func (p Plan) Reset() Plan {
	return Plan{demandID: p.demandID, approved: p.approved}
}

// Equal compares plans as keyed sets; location order is not significant
func (p Plan) Equal(other Plan) bool {
	if p.demandID != other.demandID || p.approved != other.approved {
		return false
	}
	if p.channels != other.channels || len(p.locations) != len(other.locations) {
		return false
	}
	for _, loc := range p.locations {
		qty, ok := other.LocationQty(loc.LocationID)
		if !ok || qty != loc.Quantity {
			return false
		}
	}
	return true
}

func (p Plan) locationIndex(id entities.LocationID) int {
	for i, loc := range p.locations {
		if loc.LocationID == id {
			return i
		}
	}
	return -1
}

// withLocation copies the plan and sets a location entry, appending new ones
func (p Plan) withLocation(id entities.LocationID, qty entities.Quantity) Plan {
	next := p
	next.locations = make([]entities.LocationAllocation, len(p.locations), len(p.locations)+1)
	copy(next.locations, p.locations)
	if i := next.locationIndex(id); i >= 0 {
		next.locations[i].Quantity = qty
		return next
	}
	next.locations = append(next.locations, entities.LocationAllocation{LocationID: id, Quantity: qty})
	return next
}

func (p Plan) withoutLocation(id entities.LocationID) Plan {
	i := p.locationIndex(id)
	if i < 0 {
		return p
	}
	next := p
	next.locations = make([]entities.LocationAllocation, 0, len(p.locations)-1)
	next.locations = append(next.locations, p.locations[:i]...)
	next.locations = append(next.locations, p.locations[i+1:]...)
	return next
}

func (p Plan) withChannel(ch entities.Channel, qty entities.Quantity) Plan {
	next := p
	next.channels[ch.Index()] = qty
	return next
}

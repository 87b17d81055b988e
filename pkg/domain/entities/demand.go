package entities

import "fmt"

// Demand is the work item whose approved quantity must be fully sourced
type Demand struct {
	ID           DemandID `json:"id"`
	ItemID       ItemID   `json:"item_id"`
	RequestedQty Quantity `json:"requested_qty"`
	ApprovedQty  Quantity `json:"approved_qty"`
}

// NewDemand creates a validated Demand
func NewDemand(id DemandID, itemID ItemID, requestedQty, approvedQty Quantity) (*Demand, error) {
	if id == "" {
		return nil, fmt.Errorf("demand id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if requestedQty < 0 {
		return nil, fmt.Errorf("requested quantity cannot be negative, got %d", requestedQty)
	}
	if approvedQty < 0 {
		return nil, fmt.Errorf("approved quantity cannot be negative, got %d", approvedQty)
	}
	if approvedQty > requestedQty {
		return nil, fmt.Errorf("approved quantity %d exceeds requested quantity %d", approvedQty, requestedQty)
	}

	return &Demand{
		ID:           id,
		ItemID:       itemID,
		RequestedQty: requestedQty,
		ApprovedQty:  approvedQty,
	}, nil
}

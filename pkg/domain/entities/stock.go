package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StockTransaction is a single signed movement in the external stock ledger.
// Negative quantities represent consumption or transfer out.
type StockTransaction struct {
	LocationID   LocationID      `json:"location_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	LocationName string          `json:"location_name"`
}

// NewStockTransaction creates a validated StockTransaction
func NewStockTransaction(locationID LocationID, quantity decimal.Decimal, locationName string) (*StockTransaction, error) {
	if locationID <= 0 {
		return nil, fmt.Errorf("location id must be positive, got %d", locationID)
	}

	return &StockTransaction{
		LocationID:   locationID,
		Quantity:     quantity,
		LocationName: locationName,
	}, nil
}

// LocationStockSnapshot is the current stock of one location derived from the ledger
type LocationStockSnapshot struct {
	LocationID   LocationID      `json:"location_id"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// Allocatable returns the whole units that may be drawn from the location.
// Fractional stock is floored and non-positive stock yields zero.
func (s LocationStockSnapshot) Allocatable() Quantity {
	if !s.CurrentStock.IsPositive() {
		return 0
	}
	return Quantity(s.CurrentStock.Floor().IntPart())
}

// StockSnapshot is the immutable per-session view of stock by location
type StockSnapshot struct {
	locations []LocationStockSnapshot
	index     map[LocationID]int
}

// NewStockSnapshot creates a snapshot from aggregated location rows, keeping their order
func NewStockSnapshot(locations []LocationStockSnapshot) *StockSnapshot {
	snapshot := &StockSnapshot{
		locations: make([]LocationStockSnapshot, len(locations)),
		index:     make(map[LocationID]int, len(locations)),
	}
	copy(snapshot.locations, locations)
	for i, loc := range snapshot.locations {
		snapshot.index[loc.LocationID] = i
	}
	return snapshot
}

// Lookup returns the stock row for a location
func (s *StockSnapshot) Lookup(id LocationID) (LocationStockSnapshot, bool) {
	if s == nil {
		return LocationStockSnapshot{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return LocationStockSnapshot{}, false
	}
	return s.locations[i], true
}

// Locations returns a copy of all location rows in snapshot order
func (s *StockSnapshot) Locations() []LocationStockSnapshot {
	if s == nil {
		return nil
	}
	out := make([]LocationStockSnapshot, len(s.locations))
	copy(out, s.locations)
	return out
}

// Len returns the number of locations in the snapshot
func (s *StockSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.locations)
}

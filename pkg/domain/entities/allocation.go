package entities

// LocationAllocation assigns a positive quantity from one stock location
type LocationAllocation struct {
	LocationID LocationID `json:"location_id"`
	Quantity   Quantity   `json:"qty"`
}

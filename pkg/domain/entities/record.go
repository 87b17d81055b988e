package entities

// FulfillmentRecord is one row of the persistence contract.
// Location rows carry a nil Type; channel rows carry a nil LocationID.
type FulfillmentRecord struct {
	Type       *Channel    `json:"type"`
	LocationID *LocationID `json:"location_id"`
	Qty        Quantity    `json:"qty"`
}

// NewLocationRecord creates a record drawing qty from a stock location
func NewLocationRecord(id LocationID, qty Quantity) FulfillmentRecord {
	return FulfillmentRecord{LocationID: &id, Qty: qty}
}

// NewChannelRecord creates a record sourcing qty through an external channel
func NewChannelRecord(ch Channel, qty Quantity) FulfillmentRecord {
	return FulfillmentRecord{Type: &ch, Qty: qty}
}

// IsLocation reports whether the record draws from a stock location
func (r FulfillmentRecord) IsLocation() bool {
	return r.Type == nil
}

package allocation

import "github.com/vsinha/fulfillment/pkg/domain/entities"

// Project flattens a plan into persistence records: locations in insertion
// order, then channels in po, market_purchase, site_purchase order. Channels
// holding zero are omitted. No validation is performed.
func Project(plan Plan) []entities.FulfillmentRecord {
	records := make([]entities.FulfillmentRecord, 0, len(plan.locations)+len(plan.channels))
	for _, loc := range plan.locations {
		records = append(records, entities.NewLocationRecord(loc.LocationID, loc.Quantity))
	}
	for i, ch := range entities.Channels {
		if qty := plan.channels[i]; qty > 0 {
			records = append(records, entities.NewChannelRecord(ch, qty))
		}
	}
	return records
}

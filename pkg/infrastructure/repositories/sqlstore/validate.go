package sqlstore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
)

func stockByLocation(txs []entities.StockTransaction) map[entities.LocationID]decimal.Decimal {
	stock := make(map[entities.LocationID]decimal.Decimal)
	for _, tx := range txs {
		stock[tx.LocationID] = stock[tx.LocationID].Add(tx.Quantity)
	}
	return stock
}

// validateRecords re-checks the record contract against current stock
func validateRecords(demand entities.Demand, records []entities.FulfillmentRecord, stock map[entities.LocationID]decimal.Decimal) error {
	var total entities.Quantity
	seenLocations := make(map[entities.LocationID]bool)
	seenChannels := make(map[entities.Channel]bool)

	for i, rec := range records {
		if rec.Qty <= 0 {
			return fmt.Errorf("%w: record %d has non-positive qty %d", repositories.ErrRejected, i, rec.Qty)
		}
		switch {
		case rec.Type == nil && rec.LocationID != nil:
			id := *rec.LocationID
			if seenLocations[id] {
				return fmt.Errorf("%w: location %d appears twice", repositories.ErrRejected, id)
			}
			seenLocations[id] = true
			available := stock[id]
			if decimal.NewFromInt(int64(rec.Qty)).GreaterThan(available) {
				return fmt.Errorf("%w: location %d holds %s, %d requested", repositories.ErrRejected, id, available.String(), rec.Qty)
			}
		case rec.Type != nil && rec.LocationID == nil:
			if rec.Type.Index() < 0 {
				return fmt.Errorf("%w: unknown channel %q", repositories.ErrRejected, *rec.Type)
			}
			if seenChannels[*rec.Type] {
				return fmt.Errorf("%w: channel %s appears twice", repositories.ErrRejected, *rec.Type)
			}
			seenChannels[*rec.Type] = true
		default:
			return fmt.Errorf("%w: record %d must set exactly one of type and location_id", repositories.ErrRejected, i)
		}
		total += rec.Qty
	}

	if total != demand.ApprovedQty {
		return fmt.Errorf("%w: records total %d, approved %d", repositories.ErrRejected, total, demand.ApprovedQty)
	}
	return nil
}

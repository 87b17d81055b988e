package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Aggregate reduces a raw transaction stream into current stock per location.
// Locations keep the order in which they first appear. A location with any
// transaction is reported even if its stock nets to zero or below.
func Aggregate(transactions []entities.StockTransaction) []entities.LocationStockSnapshot {
	result := []entities.LocationStockSnapshot{}
	index := make(map[entities.LocationID]int)

	for _, tx := range transactions {
		i, seen := index[tx.LocationID]
		if !seen {
			index[tx.LocationID] = len(result)
			result = append(result, entities.LocationStockSnapshot{
				LocationID:   tx.LocationID,
				Name:         tx.LocationName,
				CurrentStock: decimal.Zero,
			})
			i = len(result) - 1
		}

		row := &result[i]
		row.CurrentStock = row.CurrentStock.Add(tx.Quantity)
		// Later transactions may carry a name the earlier ones lacked
		if row.Name == "" && tx.LocationName != "" {
			row.Name = tx.LocationName
		}
	}

	return result
}

// BuildSnapshot aggregates transactions into an immutable session snapshot
func BuildSnapshot(transactions []entities.StockTransaction) *entities.StockSnapshot {
	return entities.NewStockSnapshot(Aggregate(transactions))
}

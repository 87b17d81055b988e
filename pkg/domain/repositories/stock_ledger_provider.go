package repositories

import (
	"context"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// StockLedgerProvider provides the raw per-location transactions for an item
type StockLedgerProvider interface {
	FetchTransactions(ctx context.Context, itemID entities.ItemID) ([]entities.StockTransaction, error)
}

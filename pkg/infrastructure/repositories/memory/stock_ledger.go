package memory

import (
	"context"
	"sync"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
)

// StockLedger provides in-memory, append-only stock transaction storage
type StockLedger struct {
	mu           sync.RWMutex
	transactions map[entities.ItemID][]entities.StockTransaction
}

// NewStockLedger creates a new in-memory stock ledger
func NewStockLedger() *StockLedger {
	return &StockLedger{
		transactions: make(map[entities.ItemID][]entities.StockTransaction),
	}
}

// Verify interface compliance
var _ repositories.StockLedgerProvider = (*StockLedger)(nil)

// Append records transactions for an item
func (l *StockLedger) Append(itemID entities.ItemID, transactions ...entities.StockTransaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions[itemID] = append(l.transactions[itemID], transactions...)
}

// LoadTransactions loads transactions grouped by item into the ledger
func (l *StockLedger) LoadTransactions(byItem map[entities.ItemID][]entities.StockTransaction) error {
	for itemID, txs := range byItem {
		l.Append(itemID, txs...)
	}
	return nil
}

// FetchTransactions returns a copy of all transactions recorded for an item
func (l *StockLedger) FetchTransactions(_ context.Context, itemID entities.ItemID) ([]entities.StockTransaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txs := l.transactions[itemID]
	out := make([]entities.StockTransaction, len(txs))
	copy(out, txs)
	return out, nil
}

// Items returns the number of items with at least one transaction
func (l *StockLedger) Items() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions)
}

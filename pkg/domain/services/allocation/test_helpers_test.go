package allocation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

func newPlan(t *testing.T, approved entities.Quantity) Plan {
	t.Helper()
	plan, err := NewPlan(entities.Demand{ID: "DEM-1", ItemID: "ITEM-1", RequestedQty: approved, ApprovedQty: approved})
	if err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}
	return plan
}

func snapshotOf(stock map[entities.LocationID]int64) *entities.StockSnapshot {
	var rows []entities.LocationStockSnapshot
	for _, id := range []entities.LocationID{1, 2, 3, 4, 5} {
		if qty, ok := stock[id]; ok {
			rows = append(rows, entities.LocationStockSnapshot{LocationID: id, CurrentStock: decimal.NewFromInt(qty)})
		}
	}
	return entities.NewStockSnapshot(rows)
}

func expectKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got none", kind)
	}
	var allocErr *Error
	if !errors.As(err, &allocErr) {
		t.Fatalf("Expected *allocation.Error, got %T: %v", err, err)
	}
	if allocErr.Kind != kind {
		t.Fatalf("Expected kind %s, got %s (%v)", kind, allocErr.Kind, err)
	}
	return allocErr
}

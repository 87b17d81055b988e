package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/infrastructure/repositories/memory"
)

// Scenario bundles in-memory collaborators for a session service
type Scenario struct {
	Ledger    *memory.StockLedger
	Demands   *memory.DemandRepository
	Submitter *memory.Submitter
}

// Item and demand ids used by BuildWarehouseScenario
const (
	WidgetItem entities.ItemID = "WIDGET"
	GizmoItem  entities.ItemID = "GIZMO"

	// Widget demand approved for 50 of 60
	PartialDemand entities.DemandID = "DEM-A"
	// Gizmo demand with no stock anywhere; only channels can source it
	ExternalOnlyDemand entities.DemandID = "DEM-B"
	// Widget demand approved for 15 of 15
	SmallDemand entities.DemandID = "DEM-C"
)

// Widget stock locations
const (
	Central entities.LocationID = 1 // 30 on hand
	Harbor  entities.LocationID = 2 // 40 on hand after an issue
	Outlet  entities.LocationID = 3 // overdrawn to -3
)

// BuildWarehouseScenario builds a small ledger with a clean location, a
// location with receipts and issues, and an overdrawn location.
func BuildWarehouseScenario() *Scenario {
	ledger := memory.NewStockLedger()
	ledger.Append(WidgetItem,
		transaction(Central, "30", "Central"),
		transaction(Harbor, "50", "Harbor"),
		transaction(Harbor, "-10", ""),
		transaction(Outlet, "5", "Outlet"),
		transaction(Outlet, "-8", ""),
	)

	demands := memory.NewDemandRepository()
	err := demands.LoadDemands([]*entities.Demand{
		mustDemand(PartialDemand, WidgetItem, 60, 50),
		mustDemand(ExternalOnlyDemand, GizmoItem, 10, 10),
		mustDemand(SmallDemand, WidgetItem, 15, 15),
	})
	if err != nil {
		panic(err)
	}

	return &Scenario{
		Ledger:    ledger,
		Demands:   demands,
		Submitter: memory.NewSubmitter(),
	}
}

func transaction(id entities.LocationID, qty, name string) entities.StockTransaction {
	tx, err := entities.NewStockTransaction(id, decimal.RequireFromString(qty), name)
	if err != nil {
		panic(err)
	}
	return *tx
}

func mustDemand(id entities.DemandID, item entities.ItemID, requested, approved entities.Quantity) *entities.Demand {
	d, err := entities.NewDemand(id, item, requested, approved)
	if err != nil {
		panic(err)
	}
	return d
}

package allocation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

func TestScenarioA_TwoLocations(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30, 2: 40}))
	plan := newPlan(t, 50)

	plan, err := m.AddLocation(plan, 1, 30)
	if err != nil {
		t.Fatalf("Expected first allocation to succeed: %v", err)
	}
	if plan.Remaining() != 20 {
		t.Errorf("Expected remaining 20, got %d", plan.Remaining())
	}

	rejected, err := m.AddLocation(plan, 2, 25)
	allocErr := expectKind(t, err, KindCapacityExceeded)
	if allocErr.Max != 20 {
		t.Errorf("Expected reported max 20, got %d", allocErr.Max)
	}
	if !rejected.Equal(plan) {
		t.Error("Expected rejected operation to leave the plan unchanged")
	}

	plan, err = m.AddLocation(plan, 2, 20)
	if err != nil {
		t.Fatalf("Expected second allocation to succeed: %v", err)
	}
	if plan.Remaining() != 0 {
		t.Errorf("Expected remaining 0, got %d", plan.Remaining())
	}
	if plan.State() != FullyAllocated {
		t.Errorf("Expected FullyAllocated, got %s", plan.State())
	}

	if err := ValidateForSubmit(plan); err != nil {
		t.Fatalf("Expected plan to validate: %v", err)
	}

	records, err := ToFulfillmentRecord(plan)
	if err != nil {
		t.Fatalf("Expected projection to succeed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	for i, exp := range []struct {
		id  entities.LocationID
		qty entities.Quantity
	}{{1, 30}, {2, 20}} {
		rec := records[i]
		if rec.Type != nil || rec.LocationID == nil || *rec.LocationID != exp.id || rec.Qty != exp.qty {
			t.Errorf("Record %d: expected location %d qty %d, got %+v", i, exp.id, exp.qty, rec)
		}
	}
}

func TestScenarioB_SingleChannel(t *testing.T) {
	m := NewMutator(nil)
	plan := newPlan(t, 10)

	plan, err := m.SetExternal(plan, entities.PurchaseOrder, 6)
	if err != nil {
		t.Fatalf("Expected po=6 to succeed: %v", err)
	}

	_, err = m.SetExternal(plan, entities.PurchaseOrder, 12)
	allocErr := expectKind(t, err, KindCapacityExceeded)
	if allocErr.Max != 10 {
		t.Errorf("Expected max 10 since the channel excludes itself, got %d", allocErr.Max)
	}

	plan, err = m.SetExternal(plan, entities.PurchaseOrder, 10)
	if err != nil {
		t.Fatalf("Expected po=10 to succeed: %v", err)
	}
	if plan.Remaining() != 0 {
		t.Errorf("Expected remaining 0, got %d", plan.Remaining())
	}
}

func TestScenarioC_StockBoundMax(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 15}))
	plan := newPlan(t, 15)

	_, err := m.AddLocation(plan, 1, 20)
	allocErr := expectKind(t, err, KindCapacityExceeded)
	if allocErr.Max != 15 {
		t.Errorf("Expected reported max 15, got %d", allocErr.Max)
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Error("Expected errors.Is to match ErrCapacityExceeded")
	}
}

func TestScenarioD_EmptySnapshotOnlyChannels(t *testing.T) {
	m := NewMutator(entities.NewStockSnapshot(nil))
	plan := newPlan(t, 8)

	_, err := m.AddLocation(plan, 1, 1)
	allocErr := expectKind(t, err, KindCapacityExceeded)
	if allocErr.Max != 0 {
		t.Errorf("Expected max 0 for unknown location, got %d", allocErr.Max)
	}

	plan, err = m.SetExternal(plan, entities.MarketPurchase, 5)
	if err != nil {
		t.Fatalf("Expected market purchase to succeed: %v", err)
	}
	plan, err = m.SetExternal(plan, entities.SitePurchase, 3)
	if err != nil {
		t.Fatalf("Expected site purchase to succeed: %v", err)
	}
	if err := ValidateForSubmit(plan); err != nil {
		t.Errorf("Expected channel-only plan to validate: %v", err)
	}
}

func TestAddLocation_Rejections(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30, 2: 10, 3: 40}))
	base, err := m.AddLocation(newPlan(t, 20), 1, 5)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	testCases := []struct {
		name string
		id   entities.LocationID
		qty  entities.Quantity
		kind Kind
	}{
		{"zero quantity", 2, 0, KindInvalidQuantity},
		{"negative quantity", 2, -4, KindInvalidQuantity},
		{"duplicate location", 1, 3, KindDuplicateLocation},
		{"over stock", 2, 11, KindCapacityExceeded},
		{"over remaining", 3, 16, KindCapacityExceeded},
		{"unknown location", 9, 1, KindCapacityExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			after, err := m.AddLocation(base, tc.id, tc.qty)
			expectKind(t, err, tc.kind)
			if !after.Equal(base) {
				t.Error("Expected plan to be unchanged after rejection")
			}
		})
	}
}

func TestEditLocation(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30, 2: 40}))
	plan := newPlan(t, 50)
	plan, _ = m.AddLocation(plan, 1, 30)
	plan, _ = m.AddLocation(plan, 2, 20)

	// Own value is excluded, so keeping it at the ceiling is legal
	same, err := m.EditLocation(plan, 2, 20)
	if err != nil {
		t.Fatalf("Expected edit to the same value to succeed: %v", err)
	}
	if !same.Equal(plan) {
		t.Error("Expected edit to the same value to keep the plan equal")
	}

	_, err = m.EditLocation(plan, 2, 21)
	allocErr := expectKind(t, err, KindCapacityExceeded)
	if allocErr.Max != 20 {
		t.Errorf("Expected max 20, got %d", allocErr.Max)
	}

	lowered, err := m.EditLocation(plan, 1, 10)
	if err != nil {
		t.Fatalf("Expected lowering to succeed: %v", err)
	}
	if lowered.Remaining() != 20 {
		t.Errorf("Expected remaining 20, got %d", lowered.Remaining())
	}
	if got := m.MaxFor(LocationTarget(2), lowered); got != 40 {
		t.Errorf("Expected freed capacity to raise location 2 max to 40, got %d", got)
	}

	_, err = m.EditLocation(plan, 3, 5)
	expectKind(t, err, KindNotFound)

	_, err = m.EditLocation(plan, 1, -1)
	expectKind(t, err, KindInvalidQuantity)

	removed, err := m.EditLocation(plan, 1, 0)
	if err != nil {
		t.Fatalf("Expected edit to zero to succeed: %v", err)
	}
	if _, ok := removed.LocationQty(1); ok {
		t.Error("Expected zero edit to remove the entry rather than store zero")
	}
	if len(removed.Locations()) != 1 {
		t.Errorf("Expected 1 remaining location, got %d", len(removed.Locations()))
	}
}

func TestRemoveLocation(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30}))
	plan, _ := m.AddLocation(newPlan(t, 50), 1, 30)

	removed := m.RemoveLocation(plan, 1)
	if removed.TotalAllocated() != 0 {
		t.Errorf("Expected nothing allocated, got %d", removed.TotalAllocated())
	}
	if removed.State() != Empty {
		t.Errorf("Expected Empty, got %s", removed.State())
	}

	// Absent entries are a no-op
	again := m.RemoveLocation(removed, 1)
	if !again.Equal(removed) {
		t.Error("Expected removing an absent location to be a no-op")
	}

	// The original value is untouched
	if qty, _ := plan.LocationQty(1); qty != 30 {
		t.Errorf("Expected original plan to keep 30, got %d", qty)
	}
}

func TestSetExternal(t *testing.T) {
	m := NewMutator(nil)
	plan := newPlan(t, 10)

	plan, err := m.SetExternal(plan, entities.SitePurchase, 0)
	if err != nil {
		t.Fatalf("Expected zero to be a valid channel value: %v", err)
	}
	if plan.State() != Empty {
		t.Errorf("Expected Empty after zero allocation, got %s", plan.State())
	}

	_, err = m.SetExternal(plan, entities.SitePurchase, -1)
	expectKind(t, err, KindInvalidQuantity)

	_, err = m.SetExternal(plan, entities.Channel("barter"), 1)
	expectKind(t, err, KindNotFound)

	plan, _ = m.SetExternal(plan, entities.PurchaseOrder, 4)
	if plan.State() != PartiallyAllocated {
		t.Errorf("Expected PartiallyAllocated, got %s", plan.State())
	}
	plan, _ = m.SetExternal(plan, entities.MarketPurchase, 6)
	if plan.State() != FullyAllocated {
		t.Errorf("Expected FullyAllocated, got %s", plan.State())
	}

	// Going back down from fully allocated is allowed
	plan, err = m.SetExternal(plan, entities.MarketPurchase, 1)
	if err != nil {
		t.Fatalf("Expected lowering a channel to succeed: %v", err)
	}
	if plan.State() != PartiallyAllocated {
		t.Errorf("Expected PartiallyAllocated, got %s", plan.State())
	}
}

func TestValidateForSubmit_Delta(t *testing.T) {
	m := NewMutator(nil)
	plan, _ := m.SetExternal(newPlan(t, 10), entities.PurchaseOrder, 7)

	err := ValidateForSubmit(plan)
	var conservation *ConservationError
	if !errors.As(err, &conservation) {
		t.Fatalf("Expected ConservationError, got %v", err)
	}
	if conservation.Delta != 3 {
		t.Errorf("Expected delta 3, got %d", conservation.Delta)
	}
	if err.Error() != "3 units unallocated (allocated 7 of 10)" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrConservationMismatch) {
		t.Error("Expected errors.Is to match ErrConservationMismatch")
	}

	if _, err := ToFulfillmentRecord(plan); err == nil {
		t.Error("Expected projection of an incomplete plan to fail")
	}

	over := &ConservationError{Approved: 10, Allocated: 12, Delta: -2}
	if over.Error() != "2 units over (allocated 12 of 10)" {
		t.Errorf("Unexpected message: %s", over.Error())
	}
}

func TestWholeQuantity(t *testing.T) {
	qty, err := WholeQuantity(OpAddLocation, LocationTarget(1), decimal.NewFromInt(4))
	if err != nil || qty != 4 {
		t.Fatalf("Expected 4, got %d (%v)", qty, err)
	}

	_, err = WholeQuantity(OpAddLocation, LocationTarget(1), decimal.RequireFromString("4.5"))
	allocErr := expectKind(t, err, KindInvalidQuantity)
	if allocErr.Operation != OpAddLocation {
		t.Errorf("Expected operation add_location, got %s", allocErr.Operation)
	}
	if allocErr.Error() != "add_location location 1: quantity must be a whole number, got 4.5" {
		t.Errorf("Unexpected message: %s", allocErr.Error())
	}
}

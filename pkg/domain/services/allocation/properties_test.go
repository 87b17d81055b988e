package allocation

import (
	"math/rand/v2"
	"testing"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

func checkInvariants(t *testing.T, m *Mutator, plan Plan) {
	t.Helper()
	if plan.TotalAllocated() > plan.ApprovedQty() {
		t.Fatalf("Allocated %d exceeds approved %d", plan.TotalAllocated(), plan.ApprovedQty())
	}
	seen := map[entities.LocationID]bool{}
	for _, loc := range plan.Locations() {
		if seen[loc.LocationID] {
			t.Fatalf("Duplicate entry for location %d", loc.LocationID)
		}
		seen[loc.LocationID] = true
		if loc.Quantity <= 0 {
			t.Fatalf("Location %d stored with non-positive quantity %d", loc.LocationID, loc.Quantity)
		}
		row, _ := m.Snapshot().Lookup(loc.LocationID)
		if loc.Quantity > row.Allocatable() {
			t.Fatalf("Location %d holds %d above stock %s", loc.LocationID, loc.Quantity, row.CurrentStock)
		}
	}
	for _, ch := range entities.Channels {
		if plan.ChannelQty(ch) < 0 {
			t.Fatalf("Channel %s holds negative quantity", ch)
		}
	}
}

func TestRandomOperations_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30, 2: 40, 3: 0, 4: -5, 5: 12}))
	plan := newPlan(t, 50)

	for step := 0; step < 2000; step++ {
		id := entities.LocationID(rng.IntN(6) + 1)
		qty := entities.Quantity(rng.IntN(60) - 5)
		before := plan
		beforeTotal := before.TotalAllocated()
		beforeLocations := before.Locations()

		var next Plan
		var err error
		switch rng.IntN(4) {
		case 0:
			next, err = m.AddLocation(plan, id, qty)
		case 1:
			next, err = m.EditLocation(plan, id, qty)
		case 2:
			next = m.RemoveLocation(plan, id)
		default:
			next, err = m.SetExternal(plan, entities.Channels[rng.IntN(len(entities.Channels))], qty)
		}

		if err != nil {
			if !next.Equal(before) {
				t.Fatalf("Step %d: rejected operation changed the plan", step)
			}
		} else {
			plan = next
		}
		checkInvariants(t, m, plan)
		if before.TotalAllocated() != beforeTotal || len(before.Locations()) != len(beforeLocations) {
			t.Fatalf("Step %d: previous plan value was mutated", step)
		}
	}
}

func TestAddThenRemove_RoundTrip(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 30, 2: 40, 3: 25}))
	plan := newPlan(t, 60)
	plan, _ = m.AddLocation(plan, 1, 12)
	plan, _ = m.SetExternal(plan, entities.PurchaseOrder, 8)

	for _, qty := range []entities.Quantity{1, 10, 25} {
		added, err := m.AddLocation(plan, 3, qty)
		if err != nil {
			t.Fatalf("Expected add of %d to succeed: %v", qty, err)
		}
		if restored := m.RemoveLocation(added, 3); !restored.Equal(plan) {
			t.Errorf("Expected remove(add(plan, 3, %d)) to equal plan", qty)
		}
	}
}

func TestCapacity_ConservedBetweenTargets(t *testing.T) {
	m := NewMutator(snapshotOf(map[entities.LocationID]int64{1: 100, 2: 100}))
	plan := newPlan(t, 50)
	plan, _ = m.AddLocation(plan, 1, 10)

	targets := []Target{LocationTarget(2), ChannelTarget(entities.MarketPurchase)}
	for _, a := range targets {
		before := m.MaxFor(a, plan)

		changed, err := m.EditLocation(plan, 1, 25)
		if err != nil {
			t.Fatalf("Edit failed: %v", err)
		}
		if got := m.MaxFor(a, changed); got != before-15 {
			t.Errorf("%s: expected max %d after +15 elsewhere, got %d", a, before-15, got)
		}

		changed, _ = m.SetExternal(plan, entities.PurchaseOrder, 7)
		if got := m.MaxFor(a, changed); got != before-7 {
			t.Errorf("%s: expected max %d after po=7, got %d", a, before-7, got)
		}
	}
}

func TestMaxFor_Idempotent(t *testing.T) {
	snapshot := snapshotOf(map[entities.LocationID]int64{1: 30, 4: -5})
	plan := newPlan(t, 50)

	for _, target := range []Target{LocationTarget(1), LocationTarget(4), LocationTarget(9), ChannelTarget(entities.PurchaseOrder)} {
		first := MaxFor(target, plan, snapshot)
		if second := MaxFor(target, plan, snapshot); first != second {
			t.Errorf("%s: expected stable max, got %d then %d", target, first, second)
		}
		if first < 0 {
			t.Errorf("%s: expected non-negative max, got %d", target, first)
		}
	}

	if got := MaxFor(LocationTarget(4), plan, snapshot); got != 0 {
		t.Errorf("Expected negative stock to give zero capacity, got %d", got)
	}
}

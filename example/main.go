package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	fixtures "github.com/vsinha/fulfillment/pkg/infrastructure/testing"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sc := fixtures.BuildWarehouseScenario()
	store := events.NewInMemoryEventStore().WithLogger(logger)
	svc := session.NewService(sc.Ledger, sc.Demands, sc.Submitter, session.Options{}).
		WithEvents(store).
		WithLogger(logger)

	sess, err := svc.Open(ctx, fixtures.PartialDemand)
	if err != nil {
		fmt.Printf("failed to open session: %v\n", err)
		return
	}

	fmt.Printf("Allocating %d units of %s\n\n", sess.Demand().ApprovedQty, sess.Demand().ItemID)
	for _, row := range sess.View().Targets {
		if row.Kind == "location" {
			fmt.Printf("  location %d %-8s stock %-4s capacity %d\n", *row.LocationID, row.Name, row.CurrentStock, row.Capacity)
		}
	}
	fmt.Println()

	try := func(label string, err error) {
		var allocErr *allocation.Error
		switch {
		case err == nil:
			fmt.Printf("  %-28s ok, %d remaining\n", label, sess.Plan().Remaining())
		case errors.As(err, &allocErr):
			fmt.Printf("  %-28s %s (max %d)\n", label, allocErr.Kind, allocErr.Max)
		default:
			fmt.Printf("  %-28s %v\n", label, err)
		}
	}

	try("add Central 30", sess.AddLocation(fixtures.Central, 30))
	try("add Harbor 25", sess.AddLocation(fixtures.Harbor, 25))
	try("add Harbor 15", sess.AddLocation(fixtures.Harbor, 15))
	try("add Outlet 1", sess.AddLocation(fixtures.Outlet, 1))
	_, err = sess.Submit(ctx)
	try("submit", err)
	try("set po 5", sess.SetExternal(entities.PurchaseOrder, 5))

	records, err := sess.Submit(ctx)
	if err != nil {
		fmt.Printf("submit failed: %v\n", err)
		return
	}

	fmt.Println("\nFulfillment records:")
	for _, r := range records {
		if r.IsLocation() {
			fmt.Printf("  location %d: %d\n", *r.LocationID, r.Qty)
		} else {
			fmt.Printf("  %s: %d\n", *r.Type, r.Qty)
		}
	}

	history, _ := store.ReadEvents(string(fixtures.PartialDemand), 0)
	fmt.Printf("\n%d events recorded for %s\n", len(history), fixtures.PartialDemand)
}

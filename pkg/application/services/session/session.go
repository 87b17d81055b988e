package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/application/dto"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
	"github.com/vsinha/fulfillment/pkg/domain/services/ledger"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	"github.com/vsinha/fulfillment/pkg/infrastructure/metrics"
)

// Session owns the current plan for one demand. Operations are serialized;
// a rejected operation leaves the current plan in place.
type Session struct {
	id      string
	service *Service
	demand  entities.Demand
	mutator *allocation.Mutator

	mu         sync.Mutex
	plan       allocation.Plan
	submitting bool
	submitted  bool
	cancelled  bool
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Demand returns the demand being allocated
func (s *Session) Demand() entities.Demand {
	return s.demand
}

// Snapshot returns the stock snapshot captured when the session opened
func (s *Session) Snapshot() *entities.StockSnapshot {
	return s.mutator.Snapshot()
}

// Plan returns the current plan value
func (s *Session) Plan() allocation.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// State returns the lifecycle state, Submitted once persistence succeeded
func (s *Session) State() allocation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return allocation.Submitted
	}
	return s.plan.State()
}

// MaxFor returns the current capacity of a target
func (s *Session) MaxFor(target allocation.Target) entities.Quantity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutator.MaxFor(target, s.plan)
}

// AddLocation allocates qty from a location not yet in the plan
func (s *Session) AddLocation(id entities.LocationID, qty entities.Quantity) error {
	return s.mutate(allocation.OpAddLocation, allocation.LocationTarget(id), func(p allocation.Plan) (allocation.Plan, error) {
		return s.mutator.AddLocation(p, id, qty)
	})
}

// EditLocation changes an existing location allocation; zero removes it
func (s *Session) EditLocation(id entities.LocationID, qty entities.Quantity) error {
	return s.mutate(allocation.OpEditLocation, allocation.LocationTarget(id), func(p allocation.Plan) (allocation.Plan, error) {
		return s.mutator.EditLocation(p, id, qty)
	})
}

// RemoveLocation drops a location allocation if present
func (s *Session) RemoveLocation(id entities.LocationID) error {
	return s.mutate(allocation.OpRemoveLocation, allocation.LocationTarget(id), func(p allocation.Plan) (allocation.Plan, error) {
		return s.mutator.RemoveLocation(p, id), nil
	})
}

// SetExternal sets an external channel's quantity
func (s *Session) SetExternal(ch entities.Channel, qty entities.Quantity) error {
	return s.mutate(allocation.OpSetExternal, allocation.ChannelTarget(ch), func(p allocation.Plan) (allocation.Plan, error) {
		return s.mutator.SetExternal(p, ch, qty)
	})
}

// Apply runs an operation with a quantity taken from user input.
// Fractional quantities are rejected as InvalidQuantity before the plan is consulted.
func (s *Session) Apply(op allocation.Operation, target allocation.Target, qty decimal.Decimal) error {
	if op == allocation.OpRemoveLocation {
		return s.RemoveLocation(target.Location)
	}

	whole, err := allocation.WholeQuantity(op, target, qty)
	if err != nil {
		s.reject(op, target, err)
		return err
	}

	switch op {
	case allocation.OpAddLocation:
		return s.AddLocation(target.Location, whole)
	case allocation.OpEditLocation:
		return s.EditLocation(target.Location, whole)
	case allocation.OpSetExternal:
		return s.SetExternal(target.Channel, whole)
	default:
		return fmt.Errorf("unsupported operation %q", op)
	}
}

func (s *Session) mutate(op allocation.Operation, target allocation.Target, fn func(allocation.Plan) (allocation.Plan, error)) error {
	s.mu.Lock()
	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return err
	}
	before := s.plan
	next, err := fn(before)
	if err == nil {
		s.plan = next
	}
	s.mu.Unlock()

	if err != nil {
		s.reject(op, target, err)
		return err
	}

	s.service.metrics.ObserveOperation(string(op), metrics.ResultAccepted)
	s.service.publish(s.changeEvent(op, target, before, next))
	s.service.logger.Debug("allocation applied",
		"session", s.id,
		"operation", op,
		"target", target.String(),
		"qty", next.TargetQty(target),
		"remaining", next.Remaining(),
	)
	return nil
}

func (s *Session) reject(op allocation.Operation, target allocation.Target, err error) {
	s.service.metrics.ObserveOperation(string(op), metrics.ResultRejected)

	rejected := events.AllocationRejected{Operation: string(op), Message: err.Error()}
	if op != allocation.OpValidateForSubmit {
		rejected.Target = target.String()
	}
	if payload, ok := dto.NewValidationError(err); ok {
		rejected.Kind = payload.Kind
		rejected.Message = payload.Message
	}
	s.service.publish(events.NewAllocationRejectedEvent(s.id, s.demand.ID, rejected))
	s.service.logger.Debug("allocation rejected", "session", s.id, "operation", op, "target", rejected.Target, "error", err)
}

func (s *Session) changeEvent(op allocation.Operation, target allocation.Target, before, after allocation.Plan) events.Event {
	if target.IsChannel() {
		return events.NewExternalSetEvent(s.id, s.demand.ID, target.Channel, after.TargetQty(target), before.TargetQty(target))
	}

	eventType := events.LocationEditedEvent
	switch {
	case op == allocation.OpAddLocation:
		eventType = events.LocationAddedEvent
	case op == allocation.OpRemoveLocation, after.TargetQty(target) == 0:
		eventType = events.LocationRemovedEvent
	}
	return events.NewLocationEvent(eventType, s.id, s.demand.ID, target.Location, after.TargetQty(target), before.TargetQty(target))
}

// checkEditable must be called with s.mu held
func (s *Session) checkEditable() error {
	switch {
	case s.submitted, s.cancelled:
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.id)
	case s.submitting:
		return ErrSubmitInFlight
	}
	return nil
}

// ValidateForSubmit reports the signed gap between approved and allocated
func (s *Session) ValidateForSubmit() error {
	return allocation.ValidateForSubmit(s.Plan())
}

// Submit validates the plan, sends its records to the submitter and, on
// success, resets the plan and closes the session. Only one submission may be
// outstanding; on failure the plan is kept exactly as it was.
func (s *Session) Submit(ctx context.Context) ([]entities.FulfillmentRecord, error) {
	s.mu.Lock()
	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	plan := s.plan
	records, err := allocation.ToFulfillmentRecord(plan)
	if err != nil {
		s.mu.Unlock()
		s.reject(allocation.OpValidateForSubmit, allocation.Target{}, err)
		return nil, err
	}
	s.submitting = true
	s.mu.Unlock()

	err = s.send(ctx, plan, records)

	s.mu.Lock()
	s.submitting = false
	if err == nil {
		s.plan = plan.Reset()
		s.submitted = true
	}
	s.mu.Unlock()

	if err != nil {
		s.service.metrics.ObserveSubmission(metrics.ResultFailure)
		s.service.publish(events.NewFulfillmentSubmitFailedEvent(s.id, s.demand.ID, err))
		s.service.logger.Warn("fulfillment submission failed", "session", s.id, "demand", s.demand.ID, "error", err)
		return nil, err
	}

	s.service.metrics.ObserveSubmission(metrics.ResultSuccess)
	s.service.metrics.SessionClosed()
	s.service.publish(events.NewFulfillmentSubmittedEvent(s.id, s.demand.ID, records))
	s.service.logger.Info("fulfillment submitted", "session", s.id, "demand", s.demand.ID, "records", len(records))
	return records, nil
}

func (s *Session) send(ctx context.Context, plan allocation.Plan, records []entities.FulfillmentRecord) error {
	if s.service.options.RevalidateBeforeSubmit {
		if err := s.revalidate(ctx, plan); err != nil {
			return err
		}
	}
	if err := s.service.submitter.Submit(ctx, s.demand.ID, records); err != nil {
		return &SubmitError{DemandID: s.demand.ID, Err: err}
	}
	return nil
}

// revalidate checks every location allocation against a fresh ledger read
func (s *Session) revalidate(ctx context.Context, plan allocation.Plan) error {
	txs, err := s.service.ledger.FetchTransactions(ctx, s.demand.ItemID)
	if err != nil {
		return &SubmitError{DemandID: s.demand.ID, Err: fmt.Errorf("refetch stock: %w", err)}
	}
	fresh := ledger.BuildSnapshot(txs)
	for _, loc := range plan.Locations() {
		row, _ := fresh.Lookup(loc.LocationID)
		if available := row.Allocatable(); loc.Quantity > available {
			return &StaleStockError{LocationID: loc.LocationID, Allocated: loc.Quantity, Available: available}
		}
	}
	return nil
}

// Cancel discards the plan and closes the session
func (s *Session) Cancel() error {
	s.mu.Lock()
	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.plan = s.plan.Reset()
	s.cancelled = true
	s.mu.Unlock()

	s.service.metrics.SessionClosed()
	s.service.publish(events.NewSessionCancelledEvent(s.id, s.demand.ID))
	s.service.logger.Info("allocation session cancelled", "session", s.id, "demand", s.demand.ID)
	return nil
}

// View builds the read-only query surface for the presentation layer
func (s *Session) View() dto.PlanView {
	s.mu.Lock()
	plan := s.plan
	submitting := s.submitting
	state := plan.State()
	if s.submitted {
		state = allocation.Submitted
	}
	s.mu.Unlock()

	view := dto.PlanView{
		SessionID:      s.id,
		DemandID:       s.demand.ID,
		ItemID:         s.demand.ItemID,
		State:          state.String(),
		ApprovedQty:    plan.ApprovedQty(),
		TotalAllocated: plan.TotalAllocated(),
		TotalRemaining: plan.Remaining(),
		Submitting:     submitting,
		Targets:        []dto.TargetView{},
	}

	for _, row := range s.Snapshot().Locations() {
		target := allocation.LocationTarget(row.LocationID)
		allocated := plan.TargetQty(target)
		if s.service.options.HideEmptyLocations && row.Allocatable() == 0 && allocated == 0 {
			continue
		}
		id := row.LocationID
		view.Targets = append(view.Targets, dto.TargetView{
			Kind:         "location",
			LocationID:   &id,
			Name:         row.Name,
			CurrentStock: row.CurrentStock.String(),
			Allocated:    allocated,
			Capacity:     s.mutator.MaxFor(target, plan),
		})
	}
	for _, ch := range entities.Channels {
		target := allocation.ChannelTarget(ch)
		view.Targets = append(view.Targets, dto.TargetView{
			Kind:      "channel",
			Channel:   ch,
			Allocated: plan.TargetQty(target),
			Capacity:  s.mutator.MaxFor(target, plan),
		})
	}
	return view
}

// Package session holds allocation sessions: one demand, one immutable stock
// snapshot and a reference to the current fulfillment plan.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
	"github.com/vsinha/fulfillment/pkg/domain/services/ledger"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	"github.com/vsinha/fulfillment/pkg/infrastructure/metrics"
)

// Options tunes session behavior
type Options struct {
	// RevalidateBeforeSubmit refetches the ledger and checks location allocations before submitting
	RevalidateBeforeSubmit bool
	// HideEmptyLocations drops zero-capacity locations from views; they stay in the snapshot
	HideEmptyLocations bool
}

// Service opens allocation sessions and keeps them addressable by id
type Service struct {
	ledger    repositories.StockLedgerProvider
	demands   repositories.DemandProvider
	submitter repositories.FulfillmentSubmitter
	events    events.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	options   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a session service over the external collaborators
func NewService(
	ledger repositories.StockLedgerProvider,
	demands repositories.DemandProvider,
	submitter repositories.FulfillmentSubmitter,
	options Options,
) *Service {
	return &Service{
		ledger:    ledger,
		demands:   demands,
		submitter: submitter,
		metrics:   (*metrics.Metrics)(nil),
		logger:    slog.Default(),
		options:   options,
		sessions:  make(map[string]*Session),
	}
}

// WithEvents publishes session events to p
func (s *Service) WithEvents(p events.Publisher) *Service {
	s.events = p
	return s
}

// WithMetrics records session outcomes to r
func (s *Service) WithMetrics(r metrics.Recorder) *Service {
	if r != nil {
		s.metrics = r
	}
	return s
}

// WithLogger sets the structured logger
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Open starts an allocation session for a demand. The stock snapshot is
// fetched exactly once here and never refreshed for the session's lifetime.
func (s *Service) Open(ctx context.Context, demandID entities.DemandID) (*Session, error) {
	demand, err := s.demands.GetDemand(ctx, demandID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrApprovedQuantityInvalid, err)
	}
	if demand.ApprovedQty < 0 || demand.ApprovedQty > demand.RequestedQty {
		return nil, fmt.Errorf("%w: demand %s approved %d of %d requested",
			ErrApprovedQuantityInvalid, demandID, demand.ApprovedQty, demand.RequestedQty)
	}

	plan, err := allocation.NewPlan(*demand)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrApprovedQuantityInvalid, err)
	}

	txs, err := s.ledger.FetchTransactions(ctx, demand.ItemID)
	if err != nil {
		return nil, fmt.Errorf("fetch stock for item %s: %w", demand.ItemID, err)
	}
	snapshot := ledger.BuildSnapshot(txs)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &Session{
		id:      id.String(),
		service: s,
		demand:  *demand,
		mutator: allocation.NewMutator(snapshot),
		plan:    plan,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.metrics.SessionOpened()
	s.publish(events.NewSessionOpenedEvent(sess.id, *demand, snapshot.Len()))
	s.logger.Info("allocation session opened",
		"session", sess.id,
		"demand", demand.ID,
		"item", demand.ItemID,
		"approved", demand.ApprovedQty,
		"locations", snapshot.Len(),
	)
	return sess, nil
}

// Get returns an open or submitted session
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Cancel discards a session's plan and forgets the session
func (s *Service) Cancel(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := sess.Cancel(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of sessions held
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) publish(event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(event); err != nil {
		s.logger.Warn("failed to publish event", "event", event.Type(), "error", err)
	}
}

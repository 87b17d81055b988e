package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
)

// Submitter stores submitted fulfillment records in memory
type Submitter struct {
	mu        sync.Mutex
	submitted map[entities.DemandID][]entities.FulfillmentRecord
	failures  []error
	calls     int
}

// NewSubmitter creates a new in-memory submitter
func NewSubmitter() *Submitter {
	return &Submitter{
		submitted: make(map[entities.DemandID][]entities.FulfillmentRecord),
	}
}

// Verify interface compliance
var _ repositories.FulfillmentSubmitter = (*Submitter)(nil)

// FailNext makes the next submission return err without storing anything
func (s *Submitter) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// Submit stores the records once per demand
func (s *Submitter) Submit(ctx context.Context, demandID entities.DemandID, records []entities.FulfillmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	if _, exists := s.submitted[demandID]; exists {
		return fmt.Errorf("%w: %s", repositories.ErrAlreadySubmitted, demandID)
	}

	stored := make([]entities.FulfillmentRecord, len(records))
	copy(stored, records)
	s.submitted[demandID] = stored
	return nil
}

// Submitted returns the records stored for a demand
func (s *Submitter) Submitted(demandID entities.DemandID) ([]entities.FulfillmentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.submitted[demandID]
	return records, ok
}

// Calls returns how many submissions were attempted
func (s *Submitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

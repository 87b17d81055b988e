// Package activity projects allocation events into a per-demand summary.
package activity

import (
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
)

// DemandActivity summarizes what sessions have done for one demand
type DemandActivity struct {
	DemandID       entities.DemandID            `json:"demand_id"`
	SessionsOpened int                          `json:"sessions_opened"`
	Cancelled      int                          `json:"cancelled"`
	Accepted       int                          `json:"accepted"`
	Rejected       map[string]int               `json:"rejected"`
	SubmitFailures int                          `json:"submit_failures"`
	LastError      string                       `json:"last_error,omitempty"`
	Submitted      bool                         `json:"submitted"`
	Records        []entities.FulfillmentRecord `json:"records,omitempty"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// Tracker is an event handler that keeps a DemandActivity per stream
type Tracker struct {
	mu       sync.RWMutex
	byDemand map[entities.DemandID]*DemandActivity
}

func NewTracker() *Tracker {
	return &Tracker{byDemand: make(map[entities.DemandID]*DemandActivity)}
}

// Verify interface compliance
var _ events.EventHandler = (*Tracker)(nil)

// Attach subscribes the tracker to every allocation event type
func (t *Tracker) Attach(store events.EventStore) error {
	return store.Subscribe(events.AllocationEventTypes, t)
}

func (t *Tracker) CanHandle(eventType string) bool {
	for _, et := range events.AllocationEventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

func (t *Tracker) Handle(event events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a := t.activity(entities.DemandID(event.StreamID()))
	a.UpdatedAt = event.Timestamp()

	switch event.Type() {
	case events.SessionOpenedEvent:
		a.SessionsOpened++
	case events.SessionCancelledEvent:
		a.Cancelled++
	case events.LocationAddedEvent, events.LocationEditedEvent, events.LocationRemovedEvent, events.ExternalSetEvent:
		a.Accepted++
	case events.AllocationRejectedEvent:
		data, ok := event.Data().(events.AllocationRejected)
		if !ok {
			return fmt.Errorf("invalid event data for %s", event.Type())
		}
		a.Rejected[data.Kind]++
		a.LastError = data.Message
	case events.FulfillmentSubmittedEvent:
		data, ok := event.Data().(events.FulfillmentSubmitted)
		if !ok {
			return fmt.Errorf("invalid event data for %s", event.Type())
		}
		a.Submitted = true
		a.Records = append([]entities.FulfillmentRecord(nil), data.Records...)
	case events.FulfillmentSubmitFailedEvent:
		data, ok := event.Data().(events.FulfillmentSubmitFailed)
		if !ok {
			return fmt.Errorf("invalid event data for %s", event.Type())
		}
		a.SubmitFailures++
		a.LastError = data.Error
	}
	return nil
}

// activity must be called with t.mu held
func (t *Tracker) activity(id entities.DemandID) *DemandActivity {
	a, ok := t.byDemand[id]
	if !ok {
		a = &DemandActivity{DemandID: id, Rejected: make(map[string]int)}
		t.byDemand[id] = a
	}
	return a
}

// Get returns a copy of the activity recorded for a demand
func (t *Tracker) Get(id entities.DemandID) (DemandActivity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.byDemand[id]
	if !ok {
		return DemandActivity{}, false
	}
	out := *a
	out.Rejected = make(map[string]int, len(a.Rejected))
	for k, v := range a.Rejected {
		out.Rejected[k] = v
	}
	out.Records = append([]entities.FulfillmentRecord(nil), a.Records...)
	return out, true
}

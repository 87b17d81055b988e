package events

import (
	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

const (
	SessionOpenedEvent    = "session.opened"
	SessionCancelledEvent = "session.cancelled"

	LocationAddedEvent      = "allocation.location.added"
	LocationEditedEvent     = "allocation.location.edited"
	LocationRemovedEvent    = "allocation.location.removed"
	ExternalSetEvent        = "allocation.external.set"
	AllocationRejectedEvent = "allocation.rejected"

	FulfillmentSubmittedEvent    = "fulfillment.submitted"
	FulfillmentSubmitFailedEvent = "fulfillment.submit_failed"
)

// AllocationEventTypes lists every event type published by allocation sessions
var AllocationEventTypes = []string{
	SessionOpenedEvent,
	SessionCancelledEvent,
	LocationAddedEvent,
	LocationEditedEvent,
	LocationRemovedEvent,
	ExternalSetEvent,
	AllocationRejectedEvent,
	FulfillmentSubmittedEvent,
	FulfillmentSubmitFailedEvent,
}

type SessionOpened struct {
	SessionID   string            `json:"session_id"`
	Demand      entities.Demand   `json:"demand"`
	Locations   int               `json:"locations"`
	ApprovedQty entities.Quantity `json:"approved_qty"`
}

type SessionCancelled struct {
	SessionID string `json:"session_id"`
}

type LocationAllocated struct {
	SessionID  string              `json:"session_id"`
	LocationID entities.LocationID `json:"location_id"`
	Quantity   entities.Quantity   `json:"qty"`
	Previous   entities.Quantity   `json:"previous"`
}

type ExternalAllocated struct {
	SessionID string            `json:"session_id"`
	Channel   entities.Channel  `json:"channel"`
	Quantity  entities.Quantity `json:"qty"`
	Previous  entities.Quantity `json:"previous"`
}

type AllocationRejected struct {
	SessionID string `json:"session_id"`
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

type FulfillmentSubmitted struct {
	SessionID string                       `json:"session_id"`
	Records   []entities.FulfillmentRecord `json:"records"`
}

type FulfillmentSubmitFailed struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func NewSessionOpenedEvent(sessionID string, demand entities.Demand, locations int) Event {
	return NewEvent(SessionOpenedEvent, string(demand.ID), SessionOpened{
		SessionID:   sessionID,
		Demand:      demand,
		Locations:   locations,
		ApprovedQty: demand.ApprovedQty,
	})
}

func NewSessionCancelledEvent(sessionID string, demandID entities.DemandID) Event {
	return NewEvent(SessionCancelledEvent, string(demandID), SessionCancelled{SessionID: sessionID})
}

func NewLocationEvent(
	eventType string,
	sessionID string,
	demandID entities.DemandID,
	locationID entities.LocationID,
	qty, previous entities.Quantity,
) Event {
	return NewEvent(eventType, string(demandID), LocationAllocated{
		SessionID:  sessionID,
		LocationID: locationID,
		Quantity:   qty,
		Previous:   previous,
	})
}

func NewExternalSetEvent(
	sessionID string,
	demandID entities.DemandID,
	channel entities.Channel,
	qty, previous entities.Quantity,
) Event {
	return NewEvent(ExternalSetEvent, string(demandID), ExternalAllocated{
		SessionID: sessionID,
		Channel:   channel,
		Quantity:  qty,
		Previous:  previous,
	})
}

func NewAllocationRejectedEvent(sessionID string, demandID entities.DemandID, rejected AllocationRejected) Event {
	rejected.SessionID = sessionID
	return NewEvent(AllocationRejectedEvent, string(demandID), rejected)
}

func NewFulfillmentSubmittedEvent(sessionID string, demandID entities.DemandID, records []entities.FulfillmentRecord) Event {
	return NewEvent(FulfillmentSubmittedEvent, string(demandID), FulfillmentSubmitted{
		SessionID: sessionID,
		Records:   records,
	})
}

func NewFulfillmentSubmitFailedEvent(sessionID string, demandID entities.DemandID, err error) Event {
	return NewEvent(FulfillmentSubmitFailedEvent, string(demandID), FulfillmentSubmitFailed{
		SessionID: sessionID,
		Error:     err.Error(),
	})
}

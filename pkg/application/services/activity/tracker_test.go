package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	fixtures "github.com/vsinha/fulfillment/pkg/infrastructure/testing"
)

func TestTracker_FollowsSessionEvents(t *testing.T) {
	sc := fixtures.BuildWarehouseScenario()
	store := events.NewInMemoryEventStore()
	tracker := NewTracker()
	require.NoError(t, tracker.Attach(store))

	svc := session.NewService(sc.Ledger, sc.Demands, sc.Submitter, session.Options{}).WithEvents(store)
	ctx := context.Background()

	sess, err := svc.Open(ctx, fixtures.SmallDemand)
	require.NoError(t, err)
	require.Error(t, sess.AddLocation(fixtures.Central, 40))
	require.NoError(t, sess.AddLocation(fixtures.Central, 15))

	sc.Submitter.FailNext(errors.New("timeout"))
	_, err = sess.Submit(ctx)
	require.Error(t, err)
	_, err = sess.Submit(ctx)
	require.NoError(t, err)

	a, ok := tracker.Get(fixtures.SmallDemand)
	require.True(t, ok)
	assert.Equal(t, 1, a.SessionsOpened)
	assert.Equal(t, 1, a.Accepted)
	assert.Equal(t, 1, a.Rejected["CapacityExceeded"])
	assert.Equal(t, 1, a.SubmitFailures)
	assert.True(t, a.Submitted)
	assert.Equal(t, []entities.FulfillmentRecord{entities.NewLocationRecord(fixtures.Central, 15)}, a.Records)

	_, ok = tracker.Get(fixtures.PartialDemand)
	assert.False(t, ok)
}

func TestTracker_RejectsMalformedPayload(t *testing.T) {
	tracker := NewTracker()
	err := tracker.Handle(events.NewEvent(events.FulfillmentSubmittedEvent, "D-1", "not records"))
	assert.Error(t, err)
	assert.False(t, tracker.CanHandle("inventory.received"))
}

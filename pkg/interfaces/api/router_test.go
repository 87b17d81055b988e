package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fulfillment/pkg/application/dto"
	"github.com/vsinha/fulfillment/pkg/application/services/activity"
	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	"github.com/vsinha/fulfillment/pkg/infrastructure/metrics"
	"github.com/vsinha/fulfillment/pkg/infrastructure/repositories/memory"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type testServer struct {
	router    *gin.Engine
	submitter *memory.Submitter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := memory.NewStockLedger()
	ledger.Append("I-1",
		entities.StockTransaction{LocationID: 1, Quantity: decimal.NewFromInt(50), LocationName: "North"},
		entities.StockTransaction{LocationID: 2, Quantity: decimal.NewFromInt(25), LocationName: "South"},
	)
	demands := memory.NewDemandRepository()
	demand, err := entities.NewDemand("D-1", "I-1", 100, 80)
	require.NoError(t, err)
	require.NoError(t, demands.LoadDemands([]*entities.Demand{demand}))

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	submitter := memory.NewSubmitter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := events.NewInMemoryEventStore().WithLogger(logger)
	tracker := activity.NewTracker()
	require.NoError(t, tracker.Attach(store))
	svc := session.NewService(ledger, demands, submitter, session.Options{}).
		WithEvents(store).
		WithMetrics(m).
		WithLogger(logger)

	return &testServer{
		router:    NewServer(svc, reg, logger).WithActivity(tracker).Router(),
		submitter: submitter,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) open(t *testing.T) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/sessions", gin.H{"demand_id": "D-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view dto.PlanView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Empty", view.State)
	assert.Len(t, view.Targets, 5)
	return view.SessionID
}

func TestRouter_AllocateAndSubmit(t *testing.T) {
	s := newTestServer(t)
	id := s.open(t)
	base := "/api/sessions/" + id

	rec, _ := s.do(t, http.MethodPost, base+"/locations", gin.H{"location_id": 1, "qty": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPut, base+"/locations/1", gin.H{"qty": "50"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, base+"/locations", gin.H{"location_id": 2, "qty": 25})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPut, base+"/external/po", gin.H{"qty": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	var view dto.PlanView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "FullyAllocated", view.State)
	assert.Equal(t, entities.Quantity(0), view.TotalRemaining)

	rec, env = s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []entities.FulfillmentRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 3)
	assert.True(t, records[0].IsLocation())
	assert.Equal(t, entities.Quantity(5), records[2].Qty)

	_, ok := s.submitter.Submitted("D-1")
	assert.True(t, ok)

	rec, _ = s.do(t, http.MethodPost, base+"/locations", gin.H{"location_id": 2, "qty": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fulfillment_submissions_total{result="success"} 1`)
	assert.Contains(t, rec.Body.String(), `fulfillment_operations_total{operation="add_location",result="accepted"} 2`)
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	id := s.open(t)
	base := "/api/sessions/" + id

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantKind string
		wantMax  *entities.Quantity
	}{
		{"fractional", http.MethodPost, base + "/locations", gin.H{"location_id": 1, "qty": 2.5}, "InvalidQuantity", nil},
		{"over stock", http.MethodPost, base + "/locations", gin.H{"location_id": 2, "qty": 26}, "CapacityExceeded", quantity(25)},
		{"edit missing", http.MethodPut, base + "/locations/2", gin.H{"qty": 3}, "NotFound", nil},
		{"unknown channel", http.MethodPut, base + "/external/barter", gin.H{"qty": 3}, "NotFound", nil},
		{"negative external", http.MethodPut, base + "/external/market_purchase", gin.H{"qty": -1}, "InvalidQuantity", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var payload dto.ValidationError
			require.NoError(t, json.Unmarshal(env.Error, &payload))
			assert.Equal(t, tt.wantKind, payload.Kind)
			assert.Equal(t, tt.wantMax, payload.Max)
		})
	}
}

func TestRouter_SubmitErrors(t *testing.T) {
	s := newTestServer(t)
	id := s.open(t)
	base := "/api/sessions/" + id

	rec, _ := s.do(t, http.MethodPost, base+"/locations", gin.H{"location_id": 1, "qty": 50})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var payload dto.ValidationError
	require.NoError(t, json.Unmarshal(env.Error, &payload))
	assert.Equal(t, "ConservationMismatch", payload.Kind)
	require.NotNil(t, payload.Delta)
	assert.Equal(t, entities.Quantity(30), *payload.Delta)

	rec, _ = s.do(t, http.MethodPut, base+"/external/site_purchase", gin.H{"qty": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	s.submitter.FailNext(errors.New("upstream unavailable"))
	rec, env = s.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "fulfillment submission failed", env.Message)

	rec, _ = s.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/demands/D-1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var a activity.DemandActivity
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.True(t, a.Submitted)
	assert.Equal(t, 1, a.SubmitFailures)
	assert.Equal(t, 1, a.Rejected["ConservationMismatch"])

	rec, _ = s.do(t, http.MethodGet, "/api/demands/D-9/activity", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/sessions", gin.H{"demand_id": "D-404"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/sessions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	id := s.open(t)
	rec, _ = s.do(t, http.MethodPost, "/api/sessions/"+id+"/locations", gin.H{"location_id": 2, "qty": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodDelete, "/api/sessions/"+id+"/locations/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view dto.PlanView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, entities.Quantity(0), view.TotalAllocated)

	rec, _ = s.do(t, http.MethodDelete, "/api/sessions/"+id+"/locations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := session.NewService(memory.NewStockLedger(), memory.NewDemandRepository(), memory.NewSubmitter(), session.Options{})
	srv := NewServer(svc, prometheus.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, srv.ListenAndServe(ctx, "127.0.0.1:0"))
}

func quantity(q entities.Quantity) *entities.Quantity {
	return &q
}

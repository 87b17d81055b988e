package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
)

func records() []entities.FulfillmentRecord {
	return []entities.FulfillmentRecord{
		entities.NewLocationRecord(4, 12),
		entities.NewChannelRecord(entities.MarketPurchase, 3),
	}
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, IsValidFormat("csv"))
	assert.False(t, IsValidFormat("xml"))
}

func TestFormatter_RecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "csv", Writer: &buf}
	require.NoError(t, f.Records("D-1", records()))

	assert.Equal(t, "type,location_id,qty\n,4,12\nmarket_purchase,,3\n", buf.String())
}

func TestFormatter_RecordsText(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Records("D-1", records()))

	out := buf.String()
	assert.Contains(t, out, "Fulfillment for D-1 (2 records)")
	assert.Contains(t, out, "location 4")
	assert.Contains(t, out, "market_purchase")
}

func TestFormatter_SnapshotJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "json", Writer: &buf}
	rows := []entities.LocationStockSnapshot{{LocationID: 2, Name: "South", CurrentStock: decimal.RequireFromString("7.5")}}
	require.NoError(t, f.Snapshot("I-1", rows))

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ItemID    string `json:"item_id"`
			Locations []struct {
				LocationID int64  `json:"location_id"`
				Name       string `json:"name"`
			} `json:"locations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "I-1", resp.Data.ItemID)
	require.Len(t, resp.Data.Locations, 1)
	assert.Equal(t, "South", resp.Data.Locations[0].Name)
}

func TestFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "json", Writer: &buf}
	err := &allocation.ConservationError{Approved: 10, Allocated: 7, Delta: 3}
	require.NoError(t, f.Error(err))
	assert.Contains(t, buf.String(), `"kind":"ConservationMismatch"`)
	assert.Contains(t, buf.String(), `"delta":3`)

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Error(errors.New("boom")))
	assert.True(t, strings.HasPrefix(buf.String(), "Error: boom"))
}

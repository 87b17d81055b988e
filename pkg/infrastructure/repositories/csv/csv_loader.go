package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Loader handles loading ledger and demand data from CSV files.
// Column names are matched case-insensitively and several historical
// spellings are accepted, so everything past the loader sees one shape.
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// column lists the accepted header spellings for one canonical field
type column struct {
	name     string
	aliases  []string
	required bool
}

var transactionColumns = []column{
	{name: "item_id", aliases: []string{"itemid", "item"}, required: true},
	{name: "location_id", aliases: []string{"locationid", "store_id", "storeid", "warehouse_id"}, required: true},
	{name: "location_name", aliases: []string{"locationname", "name", "store_name", "storename"}},
	{name: "quantity", aliases: []string{"qty", "amount"}, required: true},
}

var demandColumns = []column{
	{name: "demand_id", aliases: []string{"demandid", "id"}, required: true},
	{name: "item_id", aliases: []string{"itemid", "item"}, required: true},
	{name: "requested_qty", aliases: []string{"requested_quantity", "requestedqty", "quantity"}, required: true},
	{name: "approved_qty", aliases: []string{"approved_quantity", "approvedqty"}, required: true},
}

// LoadTransactions loads stock transactions from a CSV file, grouped by item
func (l *Loader) LoadTransactions(filename string) (map[entities.ItemID][]entities.StockTransaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadTransactions(file)
}

// ReadTransactions parses stock transactions from CSV content
func (l *Loader) ReadTransactions(r io.Reader) (map[entities.ItemID][]entities.StockTransaction, error) {
	rows, err := readRows(r, "transactions", transactionColumns)
	if err != nil {
		return nil, err
	}

	byItem := make(map[entities.ItemID][]entities.StockTransaction)
	for _, row := range rows {
		tx, err := parseTransaction(row.fields)
		if err != nil {
			return nil, fmt.Errorf("transactions CSV row %d: %w", row.line, err)
		}
		itemID := entities.ItemID(row.fields["item_id"])
		byItem[itemID] = append(byItem[itemID], *tx)
	}

	return byItem, nil
}

// LoadDemands loads approved demands from a CSV file
func (l *Loader) LoadDemands(filename string) ([]*entities.Demand, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open demands file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadDemands(file)
}

// ReadDemands parses approved demands from CSV content
func (l *Loader) ReadDemands(r io.Reader) ([]*entities.Demand, error) {
	rows, err := readRows(r, "demands", demandColumns)
	if err != nil {
		return nil, err
	}

	var demands []*entities.Demand
	for _, row := range rows {
		demand, err := parseDemand(row.fields)
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", row.line, err)
		}
		demands = append(demands, demand)
	}

	return demands, nil
}

type row struct {
	line   int
	fields map[string]string
}

// readRows reads a CSV with a header and maps every data row to canonical column names
func readRows(r io.Reader, kind string, columns []column) ([]row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	positions, err := resolveHeader(records[0], columns)
	if err != nil {
		return nil, fmt.Errorf("%s CSV header: %w", kind, err)
	}

	rows := make([]row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(records[0]), len(record))
		}
		fields := make(map[string]string, len(positions))
		for name, pos := range positions {
			fields[name] = strings.TrimSpace(record[pos])
		}
		rows = append(rows, row{line: i + 2, fields: fields})
	}

	return rows, nil
}

// resolveHeader maps canonical column names to their index in the header
func resolveHeader(header []string, columns []column) (map[string]int, error) {
	positions := make(map[string]int, len(columns))
	for i, raw := range header {
		key := strings.ToLower(strings.TrimSpace(raw))
		for _, col := range columns {
			if _, taken := positions[col.name]; taken {
				continue
			}
			if key == col.name || contains(col.aliases, key) {
				positions[col.name] = i
				break
			}
		}
	}

	for _, col := range columns {
		if _, ok := positions[col.name]; !ok && col.required {
			return nil, fmt.Errorf("missing required column %q in %v", col.name, header)
		}
	}
	return positions, nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func parseTransaction(fields map[string]string) (*entities.StockTransaction, error) {
	locationID, err := strconv.ParseInt(fields["location_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid location_id: %s", fields["location_id"])
	}

	quantity, err := decimal.NewFromString(fields["quantity"])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", fields["quantity"])
	}

	return entities.NewStockTransaction(entities.LocationID(locationID), quantity, fields["location_name"])
}

func parseDemand(fields map[string]string) (*entities.Demand, error) {
	requested, err := strconv.ParseInt(fields["requested_qty"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid requested_qty: %s", fields["requested_qty"])
	}

	approved, err := strconv.ParseInt(fields["approved_qty"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid approved_qty: %s", fields["approved_qty"])
	}

	return entities.NewDemand(
		entities.DemandID(fields["demand_id"]),
		entities.ItemID(fields["item_id"]),
		entities.Quantity(requested),
		entities.Quantity(approved),
	)
}

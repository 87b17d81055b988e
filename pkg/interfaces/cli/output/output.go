// Package output renders CLI results as text, JSON or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/vsinha/fulfillment/pkg/application/dto"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Formats accepted by --format
var Formats = []string{"text", "json", "csv"}

// Response is the JSON envelope for every command
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
}

// Formatter writes command results in the configured format
type Formatter struct {
	Format string
	Writer io.Writer
}

// IsValidFormat reports whether format is one of Formats
func IsValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Snapshot renders the aggregated stock of one item
func (f *Formatter) Snapshot(itemID entities.ItemID, rows []entities.LocationStockSnapshot) error {
	switch f.Format {
	case "json":
		return f.json(struct {
			ItemID    entities.ItemID                  `json:"item_id"`
			Locations []entities.LocationStockSnapshot `json:"locations"`
		}{itemID, rows})
	case "csv":
		lines := [][]string{{"location_id", "location_name", "current_stock", "allocatable"}}
		for _, row := range rows {
			lines = append(lines, []string{
				strconv.FormatInt(int64(row.LocationID), 10),
				row.Name,
				row.CurrentStock.String(),
				strconv.FormatInt(int64(row.Allocatable()), 10),
			})
		}
		return f.csv(lines)
	}

	fmt.Fprintf(f.Writer, "Stock for %s (%d locations)\n\n", itemID, len(rows))
	fmt.Fprintf(f.Writer, "%-10s %-20s %-14s %-12s\n", "Location", "Name", "Stock", "Allocatable")
	fmt.Fprintf(f.Writer, "%-10s %-20s %-14s %-12s\n", "----------", "--------------------", "--------------", "------------")
	for _, row := range rows {
		fmt.Fprintf(f.Writer, "%-10d %-20s %-14s %-12d\n", row.LocationID, row.Name, row.CurrentStock.String(), row.Allocatable())
	}
	return nil
}

// View renders a session's plan with per-target capacity
func (f *Formatter) View(view dto.PlanView) error {
	switch f.Format {
	case "json":
		return f.json(view)
	case "csv":
		lines := [][]string{{"kind", "target", "name", "allocated", "capacity"}}
		for _, t := range view.Targets {
			lines = append(lines, []string{t.Kind, targetLabel(t), t.Name,
				strconv.FormatInt(int64(t.Allocated), 10), strconv.FormatInt(int64(t.Capacity), 10)})
		}
		return f.csv(lines)
	}

	fmt.Fprintf(f.Writer, "Demand %s (%s): %s\n", view.DemandID, view.ItemID, view.State)
	fmt.Fprintf(f.Writer, "Approved: %d  Allocated: %d  Remaining: %d\n\n", view.ApprovedQty, view.TotalAllocated, view.TotalRemaining)
	fmt.Fprintf(f.Writer, "%-10s %-16s %-20s %-10s %-10s\n", "Kind", "Target", "Name", "Allocated", "Capacity")
	fmt.Fprintf(f.Writer, "%-10s %-16s %-20s %-10s %-10s\n", "----------", "----------------", "--------------------", "----------", "----------")
	for _, t := range view.Targets {
		fmt.Fprintf(f.Writer, "%-10s %-16s %-20s %-10d %-10d\n", t.Kind, targetLabel(t), t.Name, t.Allocated, t.Capacity)
	}
	return nil
}

// Records renders the persisted fulfillment records
func (f *Formatter) Records(demandID entities.DemandID, records []entities.FulfillmentRecord) error {
	switch f.Format {
	case "json":
		return f.json(records)
	case "csv":
		lines := [][]string{{"type", "location_id", "qty"}}
		for _, r := range records {
			typ, loc := "", ""
			if r.Type != nil {
				typ = string(*r.Type)
			}
			if r.LocationID != nil {
				loc = strconv.FormatInt(int64(*r.LocationID), 10)
			}
			lines = append(lines, []string{typ, loc, strconv.FormatInt(int64(r.Qty), 10)})
		}
		return f.csv(lines)
	}

	fmt.Fprintf(f.Writer, "Fulfillment for %s (%d records)\n\n", demandID, len(records))
	for _, r := range records {
		if r.IsLocation() {
			fmt.Fprintf(f.Writer, "  location %-8d %d\n", *r.LocationID, r.Qty)
			continue
		}
		fmt.Fprintf(f.Writer, "  %-17s %d\n", *r.Type, r.Qty)
	}
	return nil
}

// Error renders a failure; validation errors keep their typed payload in JSON
func (f *Formatter) Error(err error) error {
	if f.Format == "json" {
		var detail any = err.Error()
		if payload, ok := dto.NewValidationError(err); ok {
			detail = payload
		}
		return json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: detail})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error: %v\n", err)
	return werr
}

func (f *Formatter) json(data any) error {
	return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
}

func (f *Formatter) csv(lines [][]string) error {
	w := csv.NewWriter(f.Writer)
	if err := w.WriteAll(lines); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func targetLabel(t dto.TargetView) string {
	if t.LocationID != nil {
		return strconv.FormatInt(int64(*t.LocationID), 10)
	}
	return string(t.Channel)
}

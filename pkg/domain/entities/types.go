package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity represents an integer quantity of discrete stock units
type Quantity int64

// LocationID identifies a stock location (store, warehouse)
type LocationID int64

// DemandID identifies a demand work item
type DemandID string

// ItemID identifies the item a demand asks for
type ItemID string

// Channel represents an external procurement channel
type Channel string

const (
	PurchaseOrder  Channel = "po"
	MarketPurchase Channel = "market_purchase"
	SitePurchase   Channel = "site_purchase"
)

// Channels lists every external channel in projection order
var Channels = [...]Channel{PurchaseOrder, MarketPurchase, SitePurchase}

// String method for Channel enum
func (c Channel) String() string {
	return string(c)
}

// Index returns the position of the channel in Channels, or -1 if unknown
func (c Channel) Index() int {
	for i, ch := range Channels {
		if ch == c {
			return i
		}
	}
	return -1
}

// ParseChannel converts a string to a Channel
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if c.Index() < 0 {
		return "", fmt.Errorf("unknown channel %q (expected po, market_purchase or site_purchase)", s)
	}
	return c, nil
}

// ParseQuantity converts a boundary value to a Quantity, rejecting fractional input
func ParseQuantity(d decimal.Decimal) (Quantity, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity must be a whole number, got %s", d.String())
	}
	if !d.BigInt().IsInt64() {
		return 0, fmt.Errorf("quantity out of range: %s", d.String())
	}
	return Quantity(d.IntPart()), nil
}

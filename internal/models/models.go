package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted carts keep prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxQuantity caps a single line so quantity arithmetic never overflows.
const MaxQuantity = 9999

type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name" validate:"required,max=256"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image" validate:"max=2048"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=9999"`
}

// Cart is ordered by insertion and unique by LineItem.ID.
type Cart []LineItem

// ProductID derives the line item key from a product's display name.
func ProductID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (c Cart) Find(id string) (int, bool) {
	for i, item := range c {
		if item.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Count is the number of units across all entries.
func (c Cart) Count() int {
	count := 0
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

// Without returns a copy of c lacking the entry with the given id.
func (c Cart) Without(id string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// internal/domain/cart/entity.go
package cart

import (
	"fmt"

	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// LineItem is one product+variant entry in the cart. The JSON form is the
// persisted form.
type LineItem struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`     // Price at time of adding
	PriceText string  `json:"priceText"` // Display form, e.g. "₹250"
	Variant   string  `json:"variant"`   // Empty when the product has no variants
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// Matches reports whether the item has the given identity key
func (i LineItem) Matches(name, variant string) bool {
	return i.Name == name && i.Variant == variant
}

// Subtotal returns price × quantity without rounding
func (i LineItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// LineView is a line item prepared for display
type LineView struct {
	LineItem
	Index        int     `json:"index"`
	LineTotal    float64 `json:"subtotal"`
	SubtotalText string  `json:"subtotal_text"` // Rounded to whole units
	Breakdown    string  `json:"breakdown"`     // "₹250 × 2"
}

// Snapshot is the full display state of the cart
type Snapshot struct {
	Items        []LineView `json:"items"`
	ItemCount    int        `json:"item_count"` // Sum of all quantities
	Total        float64    `json:"total"`
	SubtotalText string     `json:"subtotal_text"`
	TotalText    string     `json:"total_text"`
	Empty        bool       `json:"empty"`
}

// NewSnapshot computes the display state of a list of items. Subtotal and
// total are always equal; no tax or shipping is modeled.
func NewSnapshot(items []LineItem) Snapshot {
	snap := Snapshot{
		Items: make([]LineView, len(items)),
		Total: CalculateTotal(items),
		Empty: len(items) == 0,
	}

	for i, item := range items {
		snap.Items[i] = LineView{
			LineItem:     item,
			Index:        i,
			LineTotal:    item.Subtotal(),
			SubtotalText: pricing.FormatAmount(item.Subtotal()),
			Breakdown:    fmt.Sprintf("%s × %d", pricing.FormatPrice(item.Price), item.Quantity),
		}
		snap.ItemCount += item.Quantity
	}

	snap.SubtotalText = pricing.FormatAmount(snap.Total)
	snap.TotalText = snap.SubtotalText
	return snap
}

// CalculateTotal sums price × quantity across items
func CalculateTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// CountItems sums the quantities of all items
func CountItems(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the position of the item with the given identity key, or -1
func FindItem(items []LineItem, name, variant string) int {
	for i := range items {
		if items[i].Matches(name, variant) {
			return i
		}
	}
	return -1
}

// Order is the result of a checkout hand-off
type Order struct {
	Message string  `json:"message"`
	URL     string  `json:"url"`
	Total   float64 `json:"total"`
}

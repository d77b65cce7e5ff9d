package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

// Snapshot is a read-only copy of the cart with its derived values.
type Snapshot struct {
	Items     []models.CartItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

func newSnapshot(items []models.CartItem) Snapshot {
	cloned := cloneItems(items)
	if cloned == nil {
		cloned = []models.CartItem{}
	}
	return Snapshot{
		Items:     cloned,
		Total:     Total(items),
		ItemCount: ItemCount(items),
	}
}

// Total is the sum of price x quantity. Lines without a product snapshot
// contribute nothing.
func Total(items []models.CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(pricing.LineTotal(item.UnitPrice(), item.Quantity))
	}
	return total.Round(2).InexactFloat64()
}

func ItemCount(items []models.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// MaxQuantityReached reports whether the line already holds all known stock,
// in which case the increment control must be disabled.
func MaxQuantityReached(item models.CartItem) bool {
	return item.Quantity >= item.AvailableStock()
}

func cloneItem(item models.CartItem) models.CartItem {
	if item.Product != nil {
		p := *item.Product
		if p.Category != nil {
			c := *p.Category
			p.Category = &c
		}
		item.Product = &p
	}
	return item
}

func cloneItems(items []models.CartItem) []models.CartItem {
	if items == nil {
		return nil
	}
	out := make([]models.CartItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

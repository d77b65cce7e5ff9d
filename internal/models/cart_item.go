package models

// CartItem is one server-side cart row. ID identifies the row, not the product.
type CartItem struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id,omitempty"`
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	CreatedAt string   `json:"created_at,omitempty"`
	Product   *Product `json:"products,omitempty"`
}

// UnitPrice is the denormalized product price, 0 when the snapshot is missing.
func (i CartItem) UnitPrice() float64 {
	if i.Product == nil {
		return 0
	}
	return i.Product.Price
}

// AvailableStock is the denormalized product stock, 0 when the snapshot is missing.
func (i CartItem) AvailableStock() int {
	if i.Product == nil {
		return 0
	}
	return i.Product.Stock
}

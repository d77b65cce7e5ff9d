package models

// Product is the catalog entry served by the commerce API. Cart line items
// embed a copy of it so totals can be computed without another round trip.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Info       string    `json:"info,omitempty"`
	Benefits   string    `json:"benefits,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	Precaution string    `json:"precaution,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	Price      float64   `json:"price"`
	Stock      int       `json:"stock"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
	Category   *Category `json:"categories,omitempty"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductPage is the paginated listing returned by GET /products.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

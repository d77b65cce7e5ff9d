package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/models"
)

type ProductFilter struct {
	Category  string
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Query omits unset fields, matching what the catalog endpoint expects.
func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	if v := strings.TrimSpace(f.Category); v != "" {
		q.Set("category", v)
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		q.Set("search", v)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.SortBy != "" {
		q.Set("sortBy", f.SortBy)
	}
	if f.SortOrder == "asc" || f.SortOrder == "desc" {
		q.Set("sortOrder", f.SortOrder)
	}
	return q
}

type productResponse struct {
	Product models.Product `json:"product"`
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) (models.ProductPage, error) {
	var res models.ProductPage
	err := c.get(ctx, "/products", filter.Query(), &res)
	return res, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var res productResponse
	if err := c.get(ctx, "/products/"+url.PathEscape(id), nil, &res); err != nil {
		return models.Product{}, err
	}
	return res.Product, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var res categoriesResponse
	if err := c.get(ctx, "/products/categories/all", nil, &res); err != nil {
		return nil, err
	}
	return res.Categories, nil
}

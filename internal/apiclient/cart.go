package apiclient

import (
	"context"
	"net/url"

	"storefront/internal/models"
)

type cartResponse struct {
	Cart []models.CartItem `json:"cart"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) GetCart(ctx context.Context) ([]models.CartItem, error) {
	var res cartResponse
	if err := c.get(ctx, "/cart", nil, &res); err != nil {
		return nil, err
	}
	return res.Cart, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) error {
	return c.post(ctx, "/cart/add", addToCartRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	return c.put(ctx, "/cart/update/"+url.PathEscape(id), updateCartItemRequest{Quantity: quantity}, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, id string) error {
	return c.delete(ctx, "/cart/remove/"+url.PathEscape(id), nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.delete(ctx, "/cart/clear", nil)
}

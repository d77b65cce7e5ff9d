package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/models"
)

const PaymentMethodCard = "credit_card"

type OrderAddress struct {
	Street string `json:"street"`
}

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Address       OrderAddress `json:"address"`
	Phone         string       `json:"phone"`
	DiscountCode  string       `json:"discount_code,omitempty"`
	Email         string       `json:"email"`
	State         string       `json:"state"`
	City          string       `json:"city"`
	PaymentMethod string       `json:"payment_method"`
	Items         []OrderLine  `json:"items"`
	Subtotal      float64      `json:"subtotal"`
	DeliveryFee   float64      `json:"delivery_fee"`
	Total         float64      `json:"total"`
	CallbackURL   string       `json:"callback_url,omitempty"`

	// IdempotencyKey travels as a header so a retried submit cannot
	// create a second order.
	IdempotencyKey string `json:"-"`
}

type PaymentInit struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code,omitempty"`
}

type CreateOrderResponse struct {
	Order   models.Order `json:"order"`
	Payment PaymentInit  `json:"payment"`
}

type orderResponse struct {
	Order models.Order `json:"order"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	var res CreateOrderResponse
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/orders/create",
		body:    req,
		headers: headers,
	}, &res)
	return res, err
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func (c *Client) ListOrders(ctx context.Context, page, limit int) (models.OrderPage, error) {
	var res models.OrderPage
	err := c.get(ctx, "/orders", pageQuery(page, limit), &res)
	return res, err
}

func (c *Client) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var res orderResponse
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), nil, &res); err != nil {
		return models.Order{}, err
	}
	return res.Order, nil
}

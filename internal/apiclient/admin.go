package apiclient

import (
	"context"
	"net/url"

	"storefront/internal/models"
)

type dashboardResponse struct {
	Stats models.DashboardStats `json:"stats"`
}

func (c *Client) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var res dashboardResponse
	if err := c.get(ctx, "/admin/dashboard", nil, &res); err != nil {
		return models.DashboardStats{}, err
	}
	return res.Stats, nil
}

func (c *Client) AdminOrders(ctx context.Context, page, limit int, status string) (models.OrderPage, error) {
	q := pageQuery(page, limit)
	if status != "" {
		q.Set("status", status)
	}
	var res models.OrderPage
	err := c.get(ctx, "/admin/orders", q, &res)
	return res, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	body := map[string]string{"order_status": string(status)}
	return c.put(ctx, "/admin/orders/"+url.PathEscape(id)+"/status", body, nil)
}

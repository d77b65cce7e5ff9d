package apiclient

import (
	"context"
	"net/url"

	"storefront/internal/models"
)

type PaymentVerification struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Order   *models.Order `json:"order,omitempty"`
}

// Paid reports whether the gateway confirmed the payment.
func (v PaymentVerification) Paid() bool {
	if v.Order != nil {
		return v.Order.PaymentStatus == models.PaymentSuccess
	}
	return v.Status == string(models.PaymentSuccess)
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (PaymentVerification, error) {
	var res PaymentVerification
	err := c.get(ctx, "/payment/verify/"+url.PathEscape(reference), nil, &res)
	return res, err
}

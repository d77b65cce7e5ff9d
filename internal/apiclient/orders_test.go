package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestCreateOrder(t *testing.T) {
	var got map[string]any
	var idemKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/create", r.URL.Path)
		idemKey = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{
			"order": map[string]any{"id": "ord-1", "total": 16000},
			"payment": map[string]any{
				"authorization_url": "https://pay.example.com/abc",
				"reference":         "ref-abc",
			},
		})
	})

	res, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Address:        OrderAddress{Street: "12 Allen Avenue, Ikeja"},
		Phone:          "08012345678",
		Email:          "ada@example.com",
		State:          "Lagos",
		City:           "Ikeja",
		PaymentMethod:  PaymentMethodCard,
		Items:          []OrderLine{{ProductID: "prod-1", Quantity: 3}},
		Subtotal:       6000,
		DeliveryFee:    10000,
		Total:          16000,
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "idem-1", idemKey)
	assert.Equal(t, "https://pay.example.com/abc", res.Payment.AuthorizationURL)
	assert.Equal(t, "ref-abc", res.Payment.Reference)
	assert.Equal(t, "ord-1", res.Order.ID)

	assert.Equal(t, map[string]any{"street": "12 Allen Avenue, Ikeja"}, got["address"])
	assert.Equal(t, "credit_card", got["payment_method"])
	assert.Equal(t, 16000.0, got["total"])
	assert.NotContains(t, got, "discount_code")
	assert.NotContains(t, got, "IdempotencyKey")
}

func TestListOrdersAndAdminQueries(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		writeJSON(w, http.StatusOK, models.OrderPage{Orders: []models.Order{{ID: "o1"}}})
	})
	ctx := context.Background()

	page, err := client.ListOrders(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)

	_, err = client.AdminOrders(ctx, 1, 20, "shipped")
	require.NoError(t, err)
	_, err = client.AdminOrders(ctx, 1, 20, "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/orders?limit=10&page=2",
		"/admin/orders?limit=20&page=1&status=shipped",
		"/admin/orders?limit=20&page=1",
	}, queries)
}

func TestPaymentVerificationPaid(t *testing.T) {
	assert.True(t, PaymentVerification{Status: "success"}.Paid())
	assert.False(t, PaymentVerification{Status: "failed"}.Paid())
	assert.True(t, PaymentVerification{Order: &models.Order{PaymentStatus: models.PaymentSuccess}}.Paid())
}

func TestProductFilterQuery(t *testing.T) {
	q := ProductFilter{Category: " herbal ", Page: 2, Limit: 12, SortOrder: "sideways"}.Query()
	assert.Equal(t, "category=herbal&limit=12&page=2", q.Encode())
	assert.Empty(t, ProductFilter{}.Query())
}

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	return New(srv.URL, opts...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGetCartSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"cart": []models.CartItem{{
				ID:        "row-1",
				ProductID: "prod-1",
				Quantity:  3,
				Product:   &models.Product{ID: "prod-1", Price: 2000, Stock: 5},
			}},
		})
	})

	items, err := client.WithToken("tok-123").GetCart(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	require.Len(t, items, 1)
	assert.Equal(t, "row-1", items[0].ID)
	assert.Equal(t, 2000.0, items[0].UnitPrice())
}

func TestAnonymousClientSendsNoAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"categories": []models.Category{{ID: "c1", Name: "Herbal"}}})
	})

	cats, err := client.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: "c1", Name: "Herbal"}}, cats)
}

func TestMutationRequestShapes(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.Method, r.URL.EscapedPath(), body})
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	ctx := context.Background()

	require.NoError(t, client.AddToCart(ctx, "prod-1", 2))
	require.NoError(t, client.UpdateCartItem(ctx, "row/1", 4))
	require.NoError(t, client.RemoveFromCart(ctx, "row-2"))
	require.NoError(t, client.ClearCart(ctx))

	require.Len(t, calls, 4)
	assert.Equal(t, call{http.MethodPost, "/cart/add", map[string]any{"product_id": "prod-1", "quantity": 2.0}}, calls[0])
	assert.Equal(t, call{http.MethodPut, "/cart/update/row%2F1", map[string]any{"quantity": 4.0}}, calls[1])
	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "/cart/remove/row-2", calls[2].path)
	assert.Equal(t, "/cart/clear", calls[3].path)
}

func TestAPIErrorDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Insufficient stock for Moringa",
			"code":  "INSUFFICIENT_STOCK",
		})
	})

	err := client.AddToCart(context.Background(), "prod-1", 50)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr.Code)
	assert.Equal(t, "Insufficient stock for Moringa", MessageOr(err, "fallback"))
}

func TestMessageOrFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := client.ClearCart(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "Failed to clear cart", MessageOr(err, "Failed to clear cart"))
	assert.Equal(t, "fallback", MessageOr(errors.New("boom"), "fallback"))
}

func TestUnauthorizedHook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	})

	var fired int32
	scoped := client.WithToken("expired").OnUnauthorized(func() { atomic.AddInt32(&fired, 1) })

	_, err := scoped.CurrentUser(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))

	_, err = client.CurrentUser(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired), "base client has no hook")
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
	}, WithBreaker(BreakerSettings{MaxFailures: 2, Cooldown: time.Minute}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := client.ClearCart(ctx)
		assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	}

	err := client.ClearCart(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}, WithBreaker(BreakerSettings{MaxFailures: 1, Cooldown: time.Minute}))

	for i := 0; i < 3; i++ {
		_, err := client.GetProduct(context.Background(), "missing")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestTimeoutApplies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(20*time.Millisecond))

	_, err := client.GetCart(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusOK, map[string]any{"cart": []any{}})
	}, WithBreaker(BreakerSettings{MaxFailures: 2, Cooldown: time.Minute}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := client.GetCart(cancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	items, err := client.GetCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBreakerCountsPerCallTimeouts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(20*time.Millisecond), WithBreaker(BreakerSettings{MaxFailures: 1, Cooldown: time.Minute}))

	_, err := client.GetCart(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = client.GetCart(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

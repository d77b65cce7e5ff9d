package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/models"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// CartLine is a cart row plus whether the increment control must be disabled.
type CartLine struct {
	models.CartItem
	MaxReached bool `json:"maxReached"`
}

type CartResponse struct {
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	Loading   bool       `json:"loading"`
}

func newCartResponse(snap cart.Snapshot, loading bool) CartResponse {
	lines := make([]CartLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, CartLine{CartItem: item, MaxReached: cart.MaxQuantityReached(item)})
	}
	return CartResponse{Items: lines, Total: snap.Total, ItemCount: snap.ItemCount, Loading: loading}
}

func cartResponse(store *cart.Store) CartResponse {
	return newCartResponse(store.Snapshot(), store.Loading())
}

func respondCartError(c *gin.Context, route string, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) || errors.Is(err, cart.ErrInvalidProduct) || errors.Is(err, cart.ErrInvalidItem) {
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return
	}
	var cartErr *cart.Error
	if errors.As(err, &cartErr) {
		respondWithError(c, statusForUpstream(cartErr.Err), route, cartErr.Message)
		return
	}
	respondUpstreamError(c, route, err, "Failed to update cart")
}

// GetCart resynchronizes with the server and returns the snapshot.
func GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		s.Cart.FetchCart(c.Request.Context())
		c.JSON(http.StatusOK, cartResponse(s.Cart))
	}
}

func AddCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/items"
		defer handlePanic(c, route)

		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		if err := s.Cart.AddToCart(c.Request.Context(), strings.TrimSpace(req.ProductID), req.Quantity); err != nil {
			respondCartError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(s.Cart))
	}
}

func UpdateCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/items/:id"
		defer handlePanic(c, route)

		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		id := c.Param("id")
		// Known stock caps the quantity; unknown lines are left to the API.
		if item, ok := s.Cart.Item(id); ok && item.Product != nil && *req.Quantity > item.AvailableStock() {
			respondWithError(c, http.StatusConflict, route, fmt.Sprintf("Only %d left in stock", item.AvailableStock()))
			return
		}

		if err := s.Cart.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
			respondCartError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(s.Cart))
	}
}

func RemoveCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/items/:id"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		if err := s.Cart.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
			respondCartError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(s.Cart))
	}
}

// ClearCart never fails the request; a failed clear keeps the old items
// and the returned snapshot shows them.
func ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		s.Cart.ClearCart(c.Request.Context())
		c.JSON(http.StatusOK, cartResponse(s.Cart))
	}
}

// CartEvents streams the cart as server-sent events: the current cart first,
// then one event per change until the client goes away. A slow client only
// sees the newest cart.
func CartEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart/events"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		updates := make(chan cart.Snapshot, 1)
		var mu sync.Mutex
		unsubscribe := s.Cart.Subscribe(func(snap cart.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			select {
			case <-updates:
			default:
			}
			updates <- snap
		})
		defer unsubscribe()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.SSEvent("cart", cartResponse(s.Cart))
		c.Writer.Flush()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-updates:
				c.SSEvent("cart", newCartResponse(snap, s.Cart.Loading()))
				c.Writer.Flush()
			}
		}
	}
}

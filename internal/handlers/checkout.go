package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/pricing"
)

type QuoteRequest struct {
	State string `json:"state"`
}

type QuoteResponse struct {
	checkout.Totals
	DeliveryLabel string `json:"deliveryLabel"`
	Formatted     string `json:"formatted"`
	ItemCount     int    `json:"itemCount"`
}

var checkoutStatus = map[checkout.Kind]int{
	checkout.KindEmptyCart:        http.StatusBadRequest,
	checkout.KindNotAuthenticated: http.StatusUnauthorized,
	checkout.KindValidation:       http.StatusUnprocessableEntity,
	checkout.KindStockConflict:    http.StatusConflict,
	checkout.KindInProgress:       http.StatusConflict,
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	var checkoutErr *checkout.Error
	if !errors.As(err, &checkoutErr) {
		respondUpstreamError(c, route, err, "Failed to process order. Please try again.")
		return
	}

	status, ok := checkoutStatus[checkoutErr.Kind]
	if !ok {
		status = statusForUpstream(checkoutErr.Err)
	}

	body := gin.H{"error": checkoutErr.Message, "kind": checkoutErr.Kind}
	if len(checkoutErr.Fields) > 0 {
		body["fields"] = checkoutErr.Fields
	}
	switch {
	case checkoutErr.RedirectToCart():
		body["redirect"] = "/cart"
	case checkoutErr.RedirectToLogin():
		body["redirect"] = "/login"
	}

	logger(c).Info("checkout rejected",
		zap.String("route", route),
		zap.String("kind", string(checkoutErr.Kind)),
		zap.Int("status", status))
	c.AbortWithStatusJSON(status, body)
}

// QuoteCheckout prices the session's cart for a delivery state.
func QuoteCheckout() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/quote"
		defer handlePanic(c, route)

		var req QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		snap := s.Cart.Snapshot()
		totals := checkout.ComputeTotal(snap.Total, req.State)
		c.JSON(http.StatusOK, QuoteResponse{
			Totals:        totals,
			DeliveryLabel: pricing.TierFor(req.State).Label(),
			Formatted:     pricing.FormatNaira(totals.Total),
			ItemCount:     snap.ItemCount,
		})
	}
}

// ValidateCheckout reports every field problem of a draft at once.
func ValidateCheckout() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/validate"
		defer handlePanic(c, route)

		var draft checkout.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			respondValidationError(c, err)
			return
		}

		fields := checkout.Validate(draft)
		c.JSON(http.StatusOK, gin.H{"valid": fields.Valid(), "fields": fields})
	}
}

// CheckoutStatus reports where the session's last checkout attempt ended.
func CheckoutStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/checkout/status"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		body := gin.H{"state": s.Checkout.State()}
		var checkoutErr *checkout.Error
		if errors.As(s.Checkout.LastError(), &checkoutErr) {
			body["error"] = checkoutErr.Message
			body["kind"] = checkoutErr.Kind
		}
		c.JSON(http.StatusOK, body)
	}
}

// SubmitCheckout places the order. Once the API has seen the order, or
// rejected it for stock, cached stock of the ordered products is stale.
func SubmitCheckout(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout"
		defer handlePanic(c, route)

		var draft checkout.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		snap := s.Cart.Snapshot()
		handoff, err := s.Checkout.Submit(c.Request.Context(), draft, snap)
		if err == nil || checkout.KindOf(err) == checkout.KindStockConflict {
			products.Invalidate(c.Request.Context(), productIDs(snap.Items)...)
		}
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, handoff)
	}
}

func productIDs(items []models.CartItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

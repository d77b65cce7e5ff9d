package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		orders, err := s.API().ListOrders(c.Request.Context(), page, limit)
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load orders")
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		order, err := s.API().GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondUpstreamError(c, route, err, "Order not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

// VerifyPayment confirms a gateway reference after the shopper returns
// from the payment page.
func VerifyPayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payment/verify/:reference"
		defer handlePanic(c, route)

		reference := strings.TrimSpace(c.Param("reference"))
		if reference == "" {
			respondWithError(c, http.StatusBadRequest, route, "payment reference is required")
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		res, err := s.API().VerifyPayment(c.Request.Context(), reference)
		if err != nil {
			respondUpstreamError(c, route, err, "Payment verification failed")
			return
		}

		logger(c).Info("payment verified",
			zap.String("reference", reference),
			zap.Bool("paid", res.Paid()))
		c.JSON(http.StatusOK, gin.H{
			"paid":     res.Paid(),
			"status":   res.Status,
			"message":  res.Message,
			"order":    res.Order,
			"redirect": "/orders",
		})
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models"
)

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"order_status" binding:"required"`
}

func GetDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/dashboard"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		stats, err := s.API().Dashboard(c.Request.Context())
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load dashboard")
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

func GetAdminOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		status := strings.TrimSpace(c.Query("status"))
		if status != "" && !models.ValidOrderStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		orders, err := s.API().AdminOrders(c.Request.Context(), page, limit, status)
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load orders")
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/status"
		defer handlePanic(c, route)

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !models.ValidOrderStatus(req.OrderStatus) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		orderID := c.Param("id")
		if err := s.API().UpdateOrderStatus(c.Request.Context(), orderID, models.OrderStatus(req.OrderStatus)); err != nil {
			respondUpstreamError(c, route, err, "Failed to update order status")
			return
		}

		logger(c).Info("order status updated",
			zap.String("order_id", orderID),
			zap.String("status", req.OrderStatus))
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/pricing"
)

// GetDeliveryFee quotes the delivery fee for ?state=. An unknown or missing
// state is charged the standard rate.
func GetDeliveryFee() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, pricing.Info(c.Query("state")))
	}
}

func GetStates() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"states": pricing.States()})
	}
}

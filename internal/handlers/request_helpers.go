package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

func logger(c *gin.Context) *zap.Logger {
	return middleware.Logger(c)
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logger(c).Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	logger(c).Info("returning error",
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("error", message))
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// statusForUpstream maps a commerce API failure onto our response status.
// Client errors are passed through; everything else is a gateway problem.
func statusForUpstream(err error) int {
	switch status := apiclient.StatusOf(err); {
	case status >= 400 && status < 500:
		return status
	case errors.Is(err, apiclient.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondUpstreamError(c *gin.Context, route string, err error, fallback string) {
	status := statusForUpstream(err)
	if status >= 500 {
		logger(c).Error("upstream failure", zap.String("route", route), zap.Error(err))
	}
	respondWithError(c, status, route, apiclient.MessageOr(err, fallback))
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// currentSession is set by middleware.Session on every /api route.
func currentSession(c *gin.Context, route string) (*session.Session, bool) {
	s := middleware.CurrentSession(c)
	if s == nil {
		respondWithError(c, http.StatusInternalServerError, route, "session unavailable")
		return nil, false
	}
	return s, true
}

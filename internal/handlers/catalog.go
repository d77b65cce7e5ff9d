package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/catalog"
)

func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		filter := apiclient.ProductFilter{
			Category:  strings.TrimSpace(c.Query("category")),
			Search:    strings.TrimSpace(c.Query("search")),
			SortBy:    c.Query("sortBy"),
			SortOrder: c.Query("sortOrder"),
		}

		// Pagination is only forwarded when the caller asked for it.
		pageStr, limitStr := c.Query("page"), c.Query("limit")
		if pageStr != "" || limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			filter.Page, filter.Limit = page, limit
		}

		page, err := svc.Products(c.Request.Context(), filter)
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load products")
			return
		}

		logger(c).Debug("returning products", zap.String("route", route), zap.Int("count", len(page.Products)))
		c.JSON(http.StatusOK, page)
	}
}

func GetProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		product, err := svc.Product(c.Request.Context(), id)
		if err != nil {
			respondUpstreamError(c, route, err, "Product not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

func GetCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		categories, err := svc.Categories(c.Request.Context())
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load categories")
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

func GetHome(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/home"
		defer handlePanic(c, route)

		home, err := svc.Home(c.Request.Context())
		if err != nil {
			respondUpstreamError(c, route, err, "Failed to load products")
			return
		}
		c.JSON(http.StatusOK, home)
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cheapcart/internal/catalog"
	"cheapcart/internal/models"
)

type CatalogReader interface {
	Get(ctx context.Context, slug string) (*models.StoreCatalog, error)
}

// GetStoreProducts pages through the cached catalog of one store.
func GetStoreProducts(catalogs CatalogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/stores/:slug/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		slug := strings.TrimSpace(c.Param("slug"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		store, err := catalogs.Get(ctx, slug)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "store not found")
				return
			}
			routeLogger(c, route).Error().Err(err).Msg("catalog lookup failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total := int64(len(store.Products))
		start, end := pageBounds(page, limit, total)
		products := store.Products[start:end]
		if products == nil {
			products = []models.CatalogProduct{}
		}

		c.JSON(http.StatusOK, gin.H{
			"store": gin.H{"slug": store.Slug, "name": store.Name},
			"data":  products,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages(total, limit),
			},
		})
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cheapcart/internal/models"
	"cheapcart/internal/shoppinglist"
	"cheapcart/internal/users"
)

// cartTimeout bounds a full pricing run across every nearby store.
const cartTimeout = 2 * time.Minute

type CheapestCartFinder interface {
	FindCheapestCart(ctx context.Context, list *models.ShoppingList, addr models.Address) ([]models.Cart, error)
}

type ShoppingListReader interface {
	Get(ctx context.Context, userID string) (*models.ShoppingList, error)
}

// GetBestCart prices the caller's shopping list at their delivery address.
func GetBestCart(finder CheapestCartFinder, lists ShoppingListReader, repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart/best"
		defer handlePanic(c, route)

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}
		addr, ok := user.DeliveryAddress()
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "no delivery address")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cartTimeout)
		defer cancel()

		list, err := lists.Get(ctx, user.ID.Hex())
		if err != nil {
			if errors.Is(err, shoppinglist.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "shopping list not found")
				return
			}
			routeLogger(c, route).Error().Err(err).Msg("shopping list lookup failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		carts, err := finder.FindCheapestCart(ctx, list, addr)
		if err != nil {
			routeLogger(c, route).Error().Err(err).Msg("cart search failed")
			respondWithError(c, http.StatusInternalServerError, route, "cart search failed")
			return
		}
		if carts == nil {
			carts = []models.Cart{}
		}
		c.JSON(http.StatusOK, carts)
	}
}

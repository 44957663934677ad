package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cheapcart/internal/models"
	"cheapcart/internal/shoppinglist"
	"cheapcart/internal/units"
)

type ShoppingListEditor interface {
	ShoppingListReader
	AddItem(ctx context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error)
	UpdateItemQuantity(ctx context.Context, userID, name string, unit units.Unit, delta float64) (*models.ShoppingList, error)
	ReplaceItem(ctx context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error)
	RemoveItem(ctx context.Context, userID, name string) (*models.ShoppingList, error)
	Clear(ctx context.Context, userID string) (*models.ShoppingList, error)
	AddDishes(ctx context.Context, userID string, dishIDs []string) (*models.ShoppingList, error)
	RemoveDish(ctx context.Context, userID, dishID string) (*models.ShoppingList, error)
}

type updateQuantityRequest struct {
	ItemName string     `json:"itemName" binding:"required"`
	Unit     units.Unit `json:"unit" binding:"required"`
	Delta    float64    `json:"delta"`
}

type removeItemRequest struct {
	ItemName string `json:"itemName" binding:"required"`
}

type addDishesRequest struct {
	DishIDs []string `json:"dishIds" binding:"required,min=1"`
}

type removeDishRequest struct {
	DishID string `json:"dishId" binding:"required"`
}

func GetShoppingList(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /shopping-list"
		defer handlePanic(c, route)

		userID, ok := userIDFrom(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		list, err := svc.Get(ctx, userID.Hex())
		if errors.Is(err, shoppinglist.ErrNotFound) {
			c.JSON(http.StatusOK, &models.ShoppingList{
				UserID:         userID.Hex(),
				Items:          []models.ShoppingItem{},
				PreparedDishes: models.PreparedDishes{},
			})
			return
		}
		respondWithList(c, route, list, err)
	}
}

func AddShoppingItem(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /shopping-list/add"
		var item models.ShoppingItem
		editList(c, route, &item, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.AddItem(ctx, userID, item)
		})
	}
}

func UpdateShoppingItemQuantity(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /shopping-list/update-quantity"
		var req updateQuantityRequest
		editList(c, route, &req, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.UpdateItemQuantity(ctx, userID, req.ItemName, req.Unit, req.Delta)
		})
	}
}

func ReplaceShoppingItem(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /shopping-list/replace"
		var item models.ShoppingItem
		editList(c, route, &item, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.ReplaceItem(ctx, userID, item)
		})
	}
}

func RemoveShoppingItem(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /shopping-list/remove"
		var req removeItemRequest
		editList(c, route, &req, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.RemoveItem(ctx, userID, req.ItemName)
		})
	}
}

func ClearShoppingList(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /shopping-list/clear"
		editList(c, route, nil, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.Clear(ctx, userID)
		})
	}
}

func AddDishesToShoppingList(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /shopping-list/add-dishes"
		var req addDishesRequest
		editList(c, route, &req, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			ids := make([]string, 0, len(req.DishIDs))
			for _, id := range req.DishIDs {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			return svc.AddDishes(ctx, userID, ids)
		})
	}
}

func RemoveDishFromShoppingList(svc ShoppingListEditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /shopping-list/remove-dish"
		var req removeDishRequest
		editList(c, route, &req, func(ctx context.Context, userID string) (*models.ShoppingList, error) {
			return svc.RemoveDish(ctx, userID, strings.TrimSpace(req.DishID))
		})
	}
}

// editList binds body when non-nil, runs edit for the caller and writes the
// resulting list.
func editList(
	c *gin.Context,
	route string,
	body interface{},
	edit func(ctx context.Context, userID string) (*models.ShoppingList, error),
) {
	defer handlePanic(c, route)

	userID, ok := userIDFrom(c, route)
	if !ok {
		return
	}
	if body != nil {
		if err := c.ShouldBindJSON(body); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := edit(ctx, userID.Hex())
	respondWithList(c, route, list, err)
}

func respondWithList(c *gin.Context, route string, list *models.ShoppingList, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, list)
	case errors.Is(err, shoppinglist.ErrInvalidItem):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, shoppinglist.ErrDishNotPrepared):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, shoppinglist.ErrNotFound),
		errors.Is(err, shoppinglist.ErrItemNotFound),
		errors.Is(err, shoppinglist.ErrDishNotFound):
		respondWithError(c, http.StatusNotFound, route, err.Error())
	default:
		routeLogger(c, route).Error().Err(err).Msg("shopping list update failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cheapcart/internal/models"
	"cheapcart/internal/users"
)

type addressRequest struct {
	Title     string `json:"title" binding:"required"`
	City      string `json:"city" binding:"required"`
	Street    string `json:"street" binding:"required"`
	Building  string `json:"building" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

func (r addressRequest) apply(a *models.SavedAddress) {
	a.Title = strings.TrimSpace(r.Title)
	a.City = strings.TrimSpace(r.City)
	a.Street = strings.TrimSpace(r.Street)
	a.Building = strings.TrimSpace(r.Building)
	a.IsDefault = r.IsDefault
}

func GetMe(repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func GetUserAddresses(repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/addresses"
		defer handlePanic(c, route)

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}
		addresses := user.Addresses
		if addresses == nil {
			addresses = []models.SavedAddress{}
		}
		c.JSON(http.StatusOK, gin.H{"addresses": addresses})
	}
}

func CreateUserAddress(repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/addresses"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}

		if req.IsDefault {
			clearDefault(user.Addresses)
		}
		address := models.SavedAddress{ID: uuid.NewString()}
		req.apply(&address)
		user.Addresses = append(user.Addresses, address)

		if !saveAddresses(c, repo, route, user) {
			return
		}
		routeLogger(c, route).Info().Str("addressId", address.ID).Msg("address created")
		c.JSON(http.StatusCreated, gin.H{"address": address})
	}
}

func UpdateUserAddress(repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/addresses/:id"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}
		addressID := strings.TrimSpace(c.Param("id"))

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}

		index := -1
		for i, addr := range user.Addresses {
			if addr.ID == addressID {
				index = i
				break
			}
		}
		if index == -1 {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}

		if req.IsDefault {
			clearDefault(user.Addresses)
		}
		req.apply(&user.Addresses[index])

		if !saveAddresses(c, repo, route, user) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"address": user.Addresses[index]})
	}
}

func DeleteUserAddress(repo users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/addresses/:id"
		defer handlePanic(c, route)

		addressID := strings.TrimSpace(c.Param("id"))

		user, ok := loadUser(c, repo, route)
		if !ok {
			return
		}

		updated := make([]models.SavedAddress, 0, len(user.Addresses))
		for _, addr := range user.Addresses {
			if addr.ID != addressID {
				updated = append(updated, addr)
			}
		}
		if len(updated) == len(user.Addresses) {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}
		user.Addresses = updated

		if !saveAddresses(c, repo, route, user) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}

func clearDefault(addresses []models.SavedAddress) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

func loadUser(c *gin.Context, repo users.Repository, route string) (*models.User, bool) {
	userID, ok := userIDFrom(c, route)
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return nil, false
		}
		routeLogger(c, route).Error().Err(err).Msg("user lookup failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return nil, false
	}
	return user, true
}

func saveAddresses(c *gin.Context, repo users.Repository, route string, user *models.User) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := repo.SetAddresses(ctx, user.ID, user.Addresses); err != nil {
		routeLogger(c, route).Error().Err(err).Msg("address update failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return false
	}
	return true
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		routeLogger(c, route).Error().Interface("panic", r).Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	event := routeLogger(c, route).Warn()
	if status >= http.StatusInternalServerError {
		event = routeLogger(c, route).Error()
	}
	event.Int("status", status).Msg(message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func routeLogger(c *gin.Context, route string) *zerolog.Logger {
	logger := zerolog.Ctx(c.Request.Context()).With().Str("route", route).Logger()
	return &logger
}

// userIDFrom reads the id UserAuth placed on the context.
func userIDFrom(c *gin.Context, route string) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return primitive.NilObjectID, false
	}
	return userID, true
}

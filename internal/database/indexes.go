package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StoresCollection        = "supers"
	CartsCollection         = "carts"
	ShoppingListsCollection = "shoppinglists"
	DishesCollection        = "dishes"
	UsersCollection         = "users"
)

// EnsureStoreIndexes keeps one catalog record per store slug. Concurrent
// get-or-create calls rely on this index to avoid duplicates.
func EnsureStoreIndexes(db *mongo.Database) error {
	return ensureIndexes(db, StoresCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetName("slug_unique").SetUnique(true),
	})
}

func EnsureCartIndexes(db *mongo.Database) error {
	return ensureIndexes(db, CartsCollection,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "shoppingListId", Value: 1},
				{Key: "address.city", Value: 1},
				{Key: "address.street", Value: 1},
				{Key: "address.building", Value: 1},
			},
			Options: options.Index().SetName("list_address_index"),
		},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("createdAt_index"),
		},
	)
}

func EnsureShoppingListIndexes(db *mongo.Database) error {
	return ensureIndexes(db, ShoppingListsCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_unique").SetUnique(true),
	})
}

func ensureIndexes(db *mongo.Database, collection string, models ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.With().Str("component", "database").Str("collection", collection).Logger()

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		logger.Error().Err(err).Msg("index creation failed")
		return err
	}
	logger.Info().Strs("indexes", names).Msg("indexes ensured")
	return nil
}

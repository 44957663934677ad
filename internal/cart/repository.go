package cart

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(database.CartsCollection)}
}

func (m *mongoRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *mongoRepository) FindByListAndAddress(ctx context.Context, shoppingListID string, addr models.Address) ([]models.Cart, error) {
	filter := bson.M{
		"shoppingListId":   shoppingListID,
		"address.city":     addr.City,
		"address.street":   addr.Street,
		"address.building": addr.Building,
	}
	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find carts: %w", err)
	}
	defer cursor.Close(ctx)

	carts := []models.Cart{}
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode carts: %w", err)
	}
	return carts, nil
}

// InsertMany stores carts as new documents. Carts without an id get one.
func (m *mongoRepository) InsertMany(ctx context.Context, carts []models.Cart) error {
	if len(carts) == 0 {
		return nil
	}
	docs := make([]interface{}, len(carts))
	for i := range carts {
		if carts[i].ID.IsZero() {
			carts[i].ID = primitive.NewObjectID()
		}
		docs[i] = carts[i]
	}
	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert carts: %w", err)
	}
	return nil
}

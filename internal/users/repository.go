package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	SetAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.SavedAddress) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(database.UsersCollection)}
}

func (m *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (m *mongoRepository) SetAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.SavedAddress) error {
	if addresses == nil {
		addresses = []models.SavedAddress{}
	}
	res, err := m.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"addresses": addresses,
			"updatedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update addresses: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

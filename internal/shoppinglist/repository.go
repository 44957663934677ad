package shoppinglist

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

var (
	ErrNotFound        = errors.New("shopping list not found")
	ErrItemNotFound    = errors.New("item not found in shopping list")
	ErrInvalidItem     = errors.New("invalid shopping item")
	ErrDishNotFound    = errors.New("dish not found")
	ErrDishNotPrepared = errors.New("dish is not in the shopping list")
)

// Repository stores one shopping list per user.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*models.ShoppingList, error)
	Save(ctx context.Context, list *models.ShoppingList) error
}

type DishRepository interface {
	FindByID(ctx context.Context, id string) (*models.Dish, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Dish, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(database.ShoppingListsCollection)}
}

func (m *mongoRepository) GetByUser(ctx context.Context, userID string) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := m.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&list)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	if list.PreparedDishes == nil {
		list.PreparedDishes = models.PreparedDishes{}
	}
	return &list, nil
}

func (m *mongoRepository) Save(ctx context.Context, list *models.ShoppingList) error {
	if list.ID.IsZero() {
		list.ID = primitive.NewObjectID()
	}
	if list.Items == nil {
		list.Items = []models.ShoppingItem{}
	}
	if list.PreparedDishes == nil {
		list.PreparedDishes = models.PreparedDishes{}
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"userId": list.UserID}, list, opts); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	return nil
}

type mongoDishRepository struct {
	collection *mongo.Collection
}

func NewMongoDishRepository(db *mongo.Database) DishRepository {
	return &mongoDishRepository{collection: db.Collection(database.DishesCollection)}
}

func (m *mongoDishRepository) FindByID(ctx context.Context, id string) (*models.Dish, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrDishNotFound
	}
	var dish models.Dish
	if err := m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&dish); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDishNotFound
		}
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}
	return &dish, nil
}

// FindByIDs ignores ids that are malformed or unknown.
func (m *mongoDishRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Dish, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.Dish{}, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find dishes: %w", err)
	}
	defer cursor.Close(ctx)

	dishes := []models.Dish{}
	if err := cursor.All(ctx, &dishes); err != nil {
		return nil, fmt.Errorf("failed to decode dishes: %w", err)
	}
	return dishes, nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

var ErrNotFound = errors.New("store catalog not found")

// Repository persists one catalog document per store slug.
type Repository interface {
	GetOrCreate(ctx context.Context, slug, name string) (*models.StoreCatalog, error)
	Get(ctx context.Context, slug string) (*models.StoreCatalog, error)
	ReplaceProducts(ctx context.Context, slug string, products []models.CatalogProduct) error
	AppendProducts(ctx context.Context, slug string, products []models.CatalogProduct) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(database.StoresCollection)}
}

// GetOrCreate upserts on slug. The unique slug index turns a lost race into a
// duplicate key error, after which the winner's document is read back.
func (m *mongoRepository) GetOrCreate(ctx context.Context, slug, name string) (*models.StoreCatalog, error) {
	filter := bson.M{"slug": slug}
	update := bson.M{"$setOnInsert": bson.M{
		"name":     name,
		"products": []models.CatalogProduct{},
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var catalog models.StoreCatalog
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&catalog)
	if mongo.IsDuplicateKeyError(err) {
		return m.Get(ctx, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create catalog %s: %w", slug, err)
	}
	return &catalog, nil
}

func (m *mongoRepository) Get(ctx context.Context, slug string) (*models.StoreCatalog, error) {
	var catalog models.StoreCatalog
	err := m.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&catalog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog %s: %w", slug, err)
	}
	return &catalog, nil
}

func (m *mongoRepository) ReplaceProducts(ctx context.Context, slug string, products []models.CatalogProduct) error {
	if products == nil {
		products = []models.CatalogProduct{}
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$set": bson.M{"products": products}})
	if err != nil {
		return fmt.Errorf("failed to replace products of %s: %w", slug, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoRepository) AppendProducts(ctx context.Context, slug string, products []models.CatalogProduct) error {
	if len(products) == 0 {
		return nil
	}
	update := bson.M{"$push": bson.M{"products": bson.M{"$each": products}}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"slug": slug}, update)
	if err != nil {
		return fmt.Errorf("failed to append products to %s: %w", slug, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

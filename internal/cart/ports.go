package cart

import (
	"context"
	"time"

	"cheapcart/internal/geocode"
	"cheapcart/internal/models"
)

// StoreDirectory is the marketplace the carts are priced against.
type StoreDirectory interface {
	NearbyStores(ctx context.Context, lat, lon float64) ([]models.Store, error)
	DeliveryFee(ctx context.Context, venueID string, lat, lon float64) (float64, error)
	SearchProduct(ctx context.Context, storeSlug, query string) ([]models.CatalogProduct, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, addr models.Address) *geocode.Coordinates
}

type RelevanceFilter interface {
	FilterShared(ctx context.Context, pool []models.CatalogProduct, queries []string) map[string][]models.CatalogProduct
	FilterRelevant(ctx context.Context, candidatesByQuery map[string][]models.CatalogProduct) map[string][]models.CatalogProduct
}

type CatalogStore interface {
	GetOrCreate(ctx context.Context, slug, name string) (*models.StoreCatalog, error)
	PruneExpired(ctx context.Context, catalog *models.StoreCatalog) []models.CatalogProduct
	AppendNew(ctx context.Context, catalog *models.StoreCatalog, products []models.CatalogProduct) (int, error)
}

// Repository persists ranked carts.
type Repository interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	FindByListAndAddress(ctx context.Context, shoppingListID string, addr models.Address) ([]models.Cart, error)
	InsertMany(ctx context.Context, carts []models.Cart) error
}

// HotCache keeps the last ranked carts of a list and address close at hand.
type HotCache interface {
	Get(ctx context.Context, key string) ([]models.Cart, error)
	Set(ctx context.Context, key string, carts []models.Cart, ttl time.Duration) error
}

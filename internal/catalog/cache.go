package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cheapcart/internal/models"
)

// Cache applies freshness and dedupe rules on top of a Repository.
type Cache struct {
	repo      Repository
	freshness time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

type Option func(*Cache)

func WithNow(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func NewCache(repo Repository, freshness time.Duration, opts ...Option) *Cache {
	c := &Cache{
		repo:      repo,
		freshness: freshness,
		now:       time.Now,
		logger:    log.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the catalog of slug, creating an empty one on first use.
func (c *Cache) GetOrCreate(ctx context.Context, slug, name string) (*models.StoreCatalog, error) {
	return c.repo.GetOrCreate(ctx, slug, name)
}

func (c *Cache) Get(ctx context.Context, slug string) (*models.StoreCatalog, error) {
	return c.repo.Get(ctx, slug)
}

// PruneExpired drops products older than the freshness window from catalog
// and persists the result when anything was removed. A failed write is logged;
// the pruned in-memory set is returned either way.
func (c *Cache) PruneExpired(ctx context.Context, catalog *models.StoreCatalog) []models.CatalogProduct {
	cutoff := c.now().Add(-c.freshness)
	fresh := make([]models.CatalogProduct, 0, len(catalog.Products))
	for _, p := range catalog.Products {
		if p.CreatedAt.After(cutoff) {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == len(catalog.Products) {
		return fresh
	}

	removed := len(catalog.Products) - len(fresh)
	catalog.Products = fresh
	if err := c.repo.ReplaceProducts(ctx, catalog.Slug, fresh); err != nil {
		c.logger.Error().Err(err).Str("store", catalog.Slug).Msg("failed to persist pruned catalog")
	} else {
		c.logger.Debug().Str("store", catalog.Slug).Int("removed", removed).Msg("removed expired products")
	}
	return fresh
}

// AppendNew adds the products whose item id is not in catalog yet, stamping
// them with the current time, and returns how many were added. Nothing is
// written when every product is already known.
func (c *Cache) AppendNew(ctx context.Context, catalog *models.StoreCatalog, products []models.CatalogProduct) (int, error) {
	known := make(map[string]struct{}, len(catalog.Products)+len(products))
	for _, p := range catalog.Products {
		known[p.ItemID] = struct{}{}
	}

	now := c.now()
	var fresh []models.CatalogProduct
	for _, p := range products {
		if _, ok := known[p.ItemID]; ok {
			continue
		}
		known[p.ItemID] = struct{}{}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := c.repo.AppendProducts(ctx, catalog.Slug, fresh); err != nil {
		return 0, err
	}
	catalog.Products = append(catalog.Products, fresh...)
	c.logger.Debug().Str("store", catalog.Slug).Int("added", len(fresh)).Msg("catalog updated with new products")
	return len(fresh), nil
}

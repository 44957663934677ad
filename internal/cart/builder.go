package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cheapcart/internal/dispatch"
	"cheapcart/internal/geocode"
	"cheapcart/internal/models"
	"cheapcart/internal/units"
)

var tracer = otel.Tracer("cheapcart/cart")

// Builder prices a shopping list at a single store.
type Builder struct {
	catalogs   CatalogStore
	relevance  RelevanceFilter
	stores     StoreDirectory
	dispatcher *dispatch.Dispatcher
	now        func() time.Time
	logger     zerolog.Logger
}

func NewBuilder(catalogs CatalogStore, relevance RelevanceFilter, stores StoreDirectory, dispatcher *dispatch.Dispatcher) *Builder {
	return &Builder{
		catalogs:   catalogs,
		relevance:  relevance,
		stores:     stores,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     log.With().Str("component", "cart-builder").Logger(),
	}
}

// BuildCart resolves every item to the cheapest relevant product of store.
// Items without a match end up in MissingProducts; the cart is still returned.
// An error means the store could not be priced at all.
func (b *Builder) BuildCart(
	ctx context.Context,
	items []models.ShoppingItem,
	store models.Store,
	catalog *models.StoreCatalog,
	shoppingListID string,
	addr models.Address,
	coords geocode.Coordinates,
) (*models.Cart, error) {
	ctx, span := tracer.Start(ctx, "BuildCart", trace.WithAttributes(
		attribute.String("store.slug", store.Slug),
		attribute.Int("items", len(items)),
	))
	defer span.End()

	logger := b.logger.With().Str("store", store.Slug).Logger()

	var fee float64
	var g errgroup.Group
	g.Go(func() error {
		defer recoverTo(logger, "delivery fee")
		f, err := b.stores.DeliveryFee(ctx, store.VenueID, coords.Lat, coords.Lon)
		if err != nil {
			logger.Warn().Err(err).Msg("delivery fee unavailable, assuming free delivery")
			return nil
		}
		fee = f
		return nil
	})

	resolved := b.resolve(ctx, logger, store, catalog, queriesOf(items))
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build cart for %s: %w", store.Slug, err)
	}

	cart := &models.Cart{
		ShoppingListID:  shoppingListID,
		StoreSlug:       store.Slug,
		StoreName:       store.Name,
		Address:         addr,
		Products:        []models.CartProduct{},
		MissingProducts: models.StringList{},
		DeliveryPrice:   fee,
		CreatedAt:       b.now().UTC().Truncate(time.Millisecond),
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		chosen, ok := cheapest(resolved[item.Name])
		if !ok {
			cart.MissingProducts = append(cart.MissingProducts, item.Name)
			continue
		}
		needed := units.UnitsForProduct(chosen.UnitInfo, item.Unit, item.Quantity)
		if needed == 0 {
			continue
		}
		cart.Products = append(cart.Products, models.CartProduct{
			ItemID:   chosen.ItemID,
			Name:     chosen.Name,
			UnitInfo: chosen.UnitInfo,
			ImageURL: chosen.ImageURL,
			Price:    decimal.NewFromFloat(chosen.Price).Mul(decimal.NewFromInt(int64(needed))).Round(2).InexactFloat64(),
			Quantity: needed,
		})
	}
	cart.Recalculate()

	logger.Debug().
		Int("products", len(cart.Products)).
		Int("missing", len(cart.MissingProducts)).
		Float64("total", cart.TotalCost).
		Msg("cart built")
	return cart, nil
}

// resolve maps each query to its relevant candidates, first from the cached
// catalog and then, for whatever is still unresolved, from live searches.
func (b *Builder) resolve(
	ctx context.Context,
	logger zerolog.Logger,
	store models.Store,
	catalog *models.StoreCatalog,
	queries []string,
) map[string][]models.CatalogProduct {
	resolved := make(map[string][]models.CatalogProduct, len(queries))
	if len(queries) == 0 {
		return resolved
	}

	if pool := b.catalogs.PruneExpired(ctx, catalog); len(pool) > 0 {
		for q, products := range b.relevance.FilterShared(ctx, pool, queries) {
			if len(products) > 0 {
				resolved[q] = products
			}
		}
		logger.Debug().Int("cached", len(resolved)).Msg("resolved from catalog")
	}

	var pending []string
	for _, q := range queries {
		if _, ok := resolved[q]; !ok {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return resolved
	}

	fetched := b.fetch(ctx, logger, store.Slug, pending)

	var discovered []models.CatalogProduct
	for _, q := range pending {
		discovered = append(discovered, fetched[q]...)
	}
	if _, err := b.catalogs.AppendNew(ctx, catalog, discovered); err != nil {
		logger.Error().Err(err).Msg("failed to write discovered products to catalog")
	}

	for q, products := range b.relevance.FilterRelevant(ctx, fetched) {
		if len(products) > 0 {
			resolved[q] = products
		}
	}
	return resolved
}

// fetch searches the store for every query through the shared dispatcher. A
// failed search contributes an empty candidate list.
func (b *Builder) fetch(ctx context.Context, logger zerolog.Logger, slug string, queries []string) map[string][]models.CatalogProduct {
	var mu sync.Mutex
	fetched := make(map[string][]models.CatalogProduct, len(queries))

	var g errgroup.Group
	for _, q := range queries {
		q := q
		g.Go(func() error {
			defer recoverTo(logger, "product search")
			products, err := dispatch.Run(ctx, b.dispatcher, func(ctx context.Context) ([]models.CatalogProduct, error) {
				return b.stores.SearchProduct(ctx, slug, q)
			})
			if err != nil {
				logger.Warn().Err(err).Str("query", q).Msg("product search failed")
				products = nil
			}
			mu.Lock()
			fetched[q] = products
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return fetched
}

func recoverTo(logger zerolog.Logger, what string) {
	if r := recover(); r != nil {
		logger.Error().Interface("panic", r).Msgf("%s panicked", what)
	}
}

// cheapest picks the lowest priced candidate; the first one wins ties.
func cheapest(candidates []models.CatalogProduct) (models.CatalogProduct, bool) {
	if len(candidates) == 0 {
		return models.CatalogProduct{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Price < best.Price {
			best = c
		}
	}
	return best, true
}

func queriesOf(items []models.ShoppingItem) []string {
	seen := make(map[string]struct{}, len(items))
	queries := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if _, ok := seen[item.Name]; ok {
			continue
		}
		seen[item.Name] = struct{}{}
		queries = append(queries, item.Name)
	}
	return queries
}

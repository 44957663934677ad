package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cheapcart/internal/geocode"
	"cheapcart/internal/models"
)

// DefaultTopN is how many ranked carts a pricing run returns.
const DefaultTopN = 5

// DefaultFlightTimeout bounds a shared pricing run once no caller owns it.
const DefaultFlightTimeout = 2 * time.Minute

type cartBuilder interface {
	BuildCart(
		ctx context.Context,
		items []models.ShoppingItem,
		store models.Store,
		catalog *models.StoreCatalog,
		shoppingListID string,
		addr models.Address,
		coords geocode.Coordinates,
	) (*models.Cart, error)
}

// Service finds the cheapest carts for a shopping list and address, reusing
// persisted carts while they are still valid.
type Service struct {
	repo     Repository
	hot      HotCache
	geocoder Geocoder
	stores   StoreDirectory
	catalogs CatalogStore
	builder  cartBuilder
	ttl      time.Duration
	topN     int
	timeout  time.Duration
	now      func() time.Time
	group    singleflight.Group
	logger   zerolog.Logger
}

type Option func(*Service)

// WithHotCache puts a fast cache in front of the persisted carts.
func WithHotCache(hot HotCache) Option {
	return func(s *Service) { s.hot = hot }
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFlightTimeout bounds each pricing run independently of the callers
// waiting on it.
func WithFlightTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

func NewService(
	repo Repository,
	geocoder Geocoder,
	stores StoreDirectory,
	catalogs CatalogStore,
	builder cartBuilder,
	ttl time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		geocoder: geocoder,
		stores:   stores,
		catalogs: catalogs,
		builder:  builder,
		ttl:      ttl,
		topN:     DefaultTopN,
		timeout:  DefaultFlightTimeout,
		now:      time.Now,
		logger:   log.With().Str("component", "cart-service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindCheapestCart returns up to N ranked carts. Unresolvable addresses, an
// unreachable store directory and stores that fail to price all degrade to
// fewer or no carts rather than an error.
//
// Identical concurrent calls share one run. The run is detached from the
// caller that started it, so a caller giving up only abandons its own wait.
func (s *Service) FindCheapestCart(ctx context.Context, list *models.ShoppingList, addr models.Address) ([]models.Cart, error) {
	if list == nil {
		return nil, errors.New("shopping list is required")
	}
	listID := list.ID.Hex()
	key := cacheKey(listID, addr)

	ch := s.group.DoChan(key+"@"+list.UpdatedAt.UTC().Format(time.RFC3339Nano), func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.findCheapestCart(flightCtx, list, listID, key, addr)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		carts := res.Val.([]models.Cart)
		if res.Shared {
			carts = append([]models.Cart(nil), carts...)
		}
		return carts, nil
	}
}

func (s *Service) findCheapestCart(ctx context.Context, list *models.ShoppingList, listID, key string, addr models.Address) ([]models.Cart, error) {
	ctx, span := tracer.Start(ctx, "FindCheapestCart", trace.WithAttributes(
		attribute.String("shopping_list.id", listID),
	))
	defer span.End()

	logger := s.logger.With().Str("shoppingListId", listID).Logger()
	now := s.now()
	// Carts are stamped with the start of the run; an edit made while the run
	// is in flight must still invalidate them.
	pricedAt := now.UTC().Truncate(time.Millisecond)

	if n, err := s.repo.DeleteExpired(ctx, now.Add(-s.ttl)); err != nil {
		logger.Warn().Err(err).Msg("expired cart sweep failed")
	} else if n > 0 {
		logger.Debug().Int64("deleted", n).Msg("expired carts swept")
	}

	if carts := s.cached(ctx, logger, list, listID, key, addr, now); len(carts) > 0 {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return carts, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	coords := s.geocoder.Geocode(ctx, addr)
	if coords == nil {
		logger.Info().Str("city", addr.City).Msg("address could not be geocoded")
		return []models.Cart{}, nil
	}

	stores, err := s.stores.NearbyStores(ctx, coords.Lat, coords.Lon)
	if err != nil {
		logger.Warn().Err(err).Msg("store directory unavailable")
		return []models.Cart{}, nil
	}
	if len(stores) == 0 {
		logger.Info().Msg("no stores deliver to this address")
		return []models.Cart{}, nil
	}

	built := s.buildAll(ctx, logger, list, listID, addr, *coords, stores)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	carts := make([]models.Cart, 0, len(built))
	for _, c := range built {
		if c != nil && len(c.Products) > 0 {
			carts = append(carts, *c)
		}
	}
	if len(carts) == 0 {
		logger.Info().Int("stores", len(stores)).Msg("no store could price the list")
		return []models.Cart{}, nil
	}

	Rank(carts)
	if len(carts) > s.topN {
		carts = carts[:s.topN]
	}

	for i := range carts {
		carts[i].ID = primitive.NewObjectID()
		carts[i].CreatedAt = pricedAt
	}
	if err := s.repo.InsertMany(ctx, carts); err != nil {
		logger.Error().Err(err).Msg("failed to persist carts")
	}
	if s.hot != nil {
		if err := s.hot.Set(ctx, key, carts, s.ttl); err != nil {
			logger.Warn().Err(err).Msg("failed to cache carts")
		}
	}

	logger.Info().Int("stores", len(stores)).Int("carts", len(carts)).Msg("carts priced")
	return carts, nil
}

// cached returns ranked valid carts from the hot cache or the repository.
func (s *Service) cached(
	ctx context.Context,
	logger zerolog.Logger,
	list *models.ShoppingList,
	listID, key string,
	addr models.Address,
	now time.Time,
) []models.Cart {
	if s.hot != nil {
		carts, err := s.hot.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrCacheMiss) {
			logger.Warn().Err(err).Msg("hot cache lookup failed")
		}
		if valid := s.valid(carts, list.UpdatedAt, now); len(valid) > 0 {
			return valid
		}
	}

	carts, err := s.repo.FindByListAndAddress(ctx, listID, addr)
	if err != nil {
		logger.Warn().Err(err).Msg("persisted cart lookup failed")
		return nil
	}
	valid := s.valid(carts, list.UpdatedAt, now)
	if len(valid) > 0 && s.hot != nil {
		if err := s.hot.Set(ctx, key, valid, s.ttl-now.Sub(oldest(valid))); err != nil {
			logger.Warn().Err(err).Msg("failed to cache carts")
		}
	}
	return valid
}

func (s *Service) valid(carts []models.Cart, listUpdatedAt, now time.Time) []models.Cart {
	var valid []models.Cart
	for _, c := range carts {
		if IsValid(c, listUpdatedAt, now, s.ttl) {
			valid = append(valid, c)
		}
	}
	Rank(valid)
	if len(valid) > s.topN {
		valid = valid[:s.topN]
	}
	return valid
}

// buildAll prices every store concurrently. The result is indexed like stores;
// a store that fails, including by panicking, leaves a nil entry.
func (s *Service) buildAll(
	ctx context.Context,
	logger zerolog.Logger,
	list *models.ShoppingList,
	listID string,
	addr models.Address,
	coords geocode.Coordinates,
	stores []models.Store,
) []*models.Cart {
	built := make([]*models.Cart, len(stores))

	var g errgroup.Group
	for i, store := range stores {
		i, store := i, store
		g.Go(func() error {
			storeLogger := logger.With().Str("store", store.Slug).Logger()
			defer func() {
				if r := recover(); r != nil {
					storeLogger.Error().Interface("panic", r).Msg("cart build panicked")
				}
			}()

			catalog, err := s.catalogs.GetOrCreate(ctx, store.Slug, store.Name)
			if err != nil {
				storeLogger.Warn().Err(err).Msg("store catalog unavailable, skipping store")
				return nil
			}
			c, err := s.builder.BuildCart(ctx, list.Items, store, catalog, listID, addr, coords)
			if err != nil {
				storeLogger.Warn().Err(err).Msg("cart build failed, skipping store")
				return nil
			}
			built[i] = c
			return nil
		})
	}
	_ = g.Wait()
	return built
}

func oldest(carts []models.Cart) time.Time {
	t := carts[0].CreatedAt
	for _, c := range carts[1:] {
		if c.CreatedAt.Before(t) {
			t = c.CreatedAt
		}
	}
	return t
}

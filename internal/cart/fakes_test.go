package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cheapcart/internal/geocode"
	"cheapcart/internal/models"
)

type fakeDirectory struct {
	mu          sync.Mutex
	stores      []models.Store
	storesErr   error
	fees        map[string]float64
	products    map[string]map[string][]models.CatalogProduct
	searchErr   map[string]error
	storeCalls  int
	searchCalls map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		fees:        map[string]float64{},
		products:    map[string]map[string][]models.CatalogProduct{},
		searchErr:   map[string]error{},
		searchCalls: map[string]int{},
	}
}

func (f *fakeDirectory) addStore(name, slug string, fee float64) models.Store {
	s := models.Store{Name: name, Slug: slug, VenueID: "venue-" + slug}
	f.stores = append(f.stores, s)
	f.fees[s.VenueID] = fee
	f.products[slug] = map[string][]models.CatalogProduct{}
	return s
}

func (f *fakeDirectory) NearbyStores(context.Context, float64, float64) ([]models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeCalls++
	return f.stores, f.storesErr
}

func (f *fakeDirectory) DeliveryFee(_ context.Context, venueID string, _, _ float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fee, ok := f.fees[venueID]
	if !ok {
		return 0, errors.New("pricing estimate failed")
	}
	return fee, nil
}

func (f *fakeDirectory) SearchProduct(_ context.Context, slug, query string) ([]models.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls[slug+"/"+query]++
	if err := f.searchErr[slug]; err != nil {
		return nil, err
	}
	return f.products[slug][query], nil
}

func (f *fakeDirectory) searches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.searchCalls {
		n += c
	}
	return n
}

// substringRelevance treats a candidate as relevant when its name contains
// the query, ignoring case.
type substringRelevance struct {
	mu    sync.Mutex
	calls int
}

func (r *substringRelevance) FilterShared(_ context.Context, pool []models.CatalogProduct, queries []string) map[string][]models.CatalogProduct {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	out := map[string][]models.CatalogProduct{}
	for _, q := range queries {
		out[q] = match(pool, q)
	}
	return out
}

func (r *substringRelevance) FilterRelevant(_ context.Context, byQuery map[string][]models.CatalogProduct) map[string][]models.CatalogProduct {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	out := map[string][]models.CatalogProduct{}
	for q, candidates := range byQuery {
		out[q] = match(candidates, q)
	}
	return out
}

func match(candidates []models.CatalogProduct, q string) []models.CatalogProduct {
	out := []models.CatalogProduct{}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out
}

type fakeCatalogs struct {
	mu       sync.Mutex
	catalogs map[string]*models.StoreCatalog
	getErr   map[string]error
	appended map[string]int
}

func newFakeCatalogs() *fakeCatalogs {
	return &fakeCatalogs{
		catalogs: map[string]*models.StoreCatalog{},
		getErr:   map[string]error{},
		appended: map[string]int{},
	}
}

func (f *fakeCatalogs) GetOrCreate(_ context.Context, slug, name string) (*models.StoreCatalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[slug]; err != nil {
		return nil, err
	}
	c, ok := f.catalogs[slug]
	if !ok {
		c = &models.StoreCatalog{Slug: slug, Name: name}
		f.catalogs[slug] = c
	}
	cp := *c
	cp.Products = append([]models.CatalogProduct(nil), c.Products...)
	return &cp, nil
}

func (f *fakeCatalogs) PruneExpired(_ context.Context, c *models.StoreCatalog) []models.CatalogProduct {
	return c.Products
}

func (f *fakeCatalogs) AppendNew(_ context.Context, c *models.StoreCatalog, products []models.CatalogProduct) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	known := map[string]bool{}
	for _, p := range c.Products {
		known[p.ItemID] = true
	}
	added := 0
	for _, p := range products {
		if known[p.ItemID] {
			continue
		}
		known[p.ItemID] = true
		c.Products = append(c.Products, p)
		f.catalogs[c.Slug].Products = append(f.catalogs[c.Slug].Products, p)
		added++
	}
	f.appended[c.Slug] += added
	return added, nil
}

type fakeRepository struct {
	mu          sync.Mutex
	carts       []models.Cart
	insertErr   error
	findErr     error
	sweptBefore []time.Time
	inserts     int
}

func (f *fakeRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweptBefore = append(f.sweptBefore, before)
	kept := f.carts[:0]
	var n int64
	for _, c := range f.carts {
		if c.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.carts = kept
	return n, nil
}

func (f *fakeRepository) FindByListAndAddress(_ context.Context, listID string, addr models.Address) ([]models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Cart
	for _, c := range f.carts {
		if c.ShoppingListID == listID && c.Address == addr {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) InsertMany(_ context.Context, carts []models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.carts = append(f.carts, carts...)
	return nil
}

type fakeGeocoder struct {
	coords *geocode.Coordinates
	calls  int
}

func (f *fakeGeocoder) Geocode(context.Context, models.Address) *geocode.Coordinates {
	f.calls++
	return f.coords
}

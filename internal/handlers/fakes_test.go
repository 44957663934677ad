package handlers

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheapcart/internal/catalog"
	"cheapcart/internal/models"
	"cheapcart/internal/shoppinglist"
	"cheapcart/internal/units"
	"cheapcart/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func asUser(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", id)
		c.Next()
	}
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
	err   error
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	u.Addresses = append([]models.SavedAddress(nil), u.Addresses...)
	return &u, nil
}

func (f *fakeUsers) SetAddresses(_ context.Context, id primitive.ObjectID, addresses []models.SavedAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.Addresses = addresses
	f.users[id] = u
	return nil
}

type fakeFinder struct {
	carts []models.Cart
	err   error
	list  *models.ShoppingList
	addr  models.Address
}

func (f *fakeFinder) FindCheapestCart(_ context.Context, list *models.ShoppingList, addr models.Address) ([]models.Cart, error) {
	f.list = list
	f.addr = addr
	return f.carts, f.err
}

// fakeLists records the last call and returns a canned list or error.
type fakeLists struct {
	list   *models.ShoppingList
	err    error
	calls  []string
	lastID string
	item   models.ShoppingItem
	delta  float64
	dishes []string
}

func (f *fakeLists) record(op, userID string) (*models.ShoppingList, error) {
	f.calls = append(f.calls, op)
	f.lastID = userID
	return f.list, f.err
}

func (f *fakeLists) Get(_ context.Context, userID string) (*models.ShoppingList, error) {
	return f.record("get", userID)
}

func (f *fakeLists) AddItem(_ context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error) {
	f.item = item
	return f.record("add", userID)
}

func (f *fakeLists) UpdateItemQuantity(_ context.Context, userID, name string, unit units.Unit, delta float64) (*models.ShoppingList, error) {
	f.item = models.ShoppingItem{Name: name, Unit: unit}
	f.delta = delta
	return f.record("update", userID)
}

func (f *fakeLists) ReplaceItem(_ context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error) {
	f.item = item
	return f.record("replace", userID)
}

func (f *fakeLists) RemoveItem(_ context.Context, userID, name string) (*models.ShoppingList, error) {
	f.item = models.ShoppingItem{Name: name}
	return f.record("remove", userID)
}

func (f *fakeLists) Clear(_ context.Context, userID string) (*models.ShoppingList, error) {
	return f.record("clear", userID)
}

func (f *fakeLists) AddDishes(_ context.Context, userID string, dishIDs []string) (*models.ShoppingList, error) {
	f.dishes = dishIDs
	return f.record("add-dishes", userID)
}

func (f *fakeLists) RemoveDish(_ context.Context, userID, dishID string) (*models.ShoppingList, error) {
	f.dishes = []string{dishID}
	return f.record("remove-dish", userID)
}

var _ ShoppingListEditor = (*shoppinglist.Service)(nil)

type fakeCatalogs struct {
	stores map[string]models.StoreCatalog
}

func (f *fakeCatalogs) Get(_ context.Context, slug string) (*models.StoreCatalog, error) {
	s, ok := f.stores[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &s, nil
}

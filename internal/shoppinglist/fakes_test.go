package shoppinglist

import (
	"context"
	"sync"

	"cheapcart/internal/models"
)

type memoryLists struct {
	mu      sync.Mutex
	lists   map[string]models.ShoppingList
	saves   int
	saveErr error
}

func newMemoryLists() *memoryLists {
	return &memoryLists{lists: map[string]models.ShoppingList{}}
}

func (m *memoryLists) GetByUser(_ context.Context, userID string) (*models.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(l), nil
}

func (m *memoryLists) Save(_ context.Context, list *models.ShoppingList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.lists[list.UserID] = *clone(*list)
	return nil
}

func clone(l models.ShoppingList) *models.ShoppingList {
	out := l
	out.Items = append([]models.ShoppingItem{}, l.Items...)
	out.PreparedDishes = models.PreparedDishes{}
	for k, v := range l.PreparedDishes {
		out.PreparedDishes[k] = v
	}
	return &out
}

type memoryDishes struct {
	dishes map[string]models.Dish
}

func (m *memoryDishes) FindByID(_ context.Context, id string) (*models.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return nil, ErrDishNotFound
	}
	return &d, nil
}

func (m *memoryDishes) FindByIDs(_ context.Context, ids []string) ([]models.Dish, error) {
	out := []models.Dish{}
	for _, id := range ids {
		if d, ok := m.dishes[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

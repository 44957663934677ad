package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cheapcart/internal/models"
	"cheapcart/internal/units"
)

// Service edits shopping lists. Every mutation merges items by name in base
// units and moves UpdatedAt forward, which invalidates carts priced earlier.
type Service struct {
	lists  Repository
	dishes DishRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(lists Repository, dishes DishRepository) *Service {
	return &Service{
		lists:  lists,
		dishes: dishes,
		now:    time.Now,
		logger: log.With().Str("component", "shopping-list").Logger(),
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.ShoppingList, error) {
	return s.lists.GetByUser(ctx, userID)
}

// AddItem merges item into the list, creating the list on first use. A new
// item may have a zero quantity; adding zero to an existing item changes
// nothing but UpdatedAt.
func (s *Service) AddItem(ctx context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error) {
	item, err := validate(item)
	if err != nil {
		return nil, err
	}
	list, err := s.getOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case item.Quantity > 0:
		merge(list, item.Name, item.Unit.Family(), units.ToBaseUnit(item.Unit, item.Quantity))
	case list.Item(item.Name) < 0:
		// A zero quantity keeps the name on the list; pricing skips it.
		list.Items = append(list.Items, models.ShoppingItem{Name: item.Name, Unit: item.Unit})
	}
	return list, s.save(ctx, list)
}

// UpdateItemQuantity adds delta, expressed in unit, to an existing item. The
// item is removed when its quantity drops to zero or below.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, name string, unit units.Unit, delta float64) (*models.ShoppingList, error) {
	u, err := units.Parse(string(unit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	list, err := s.lists.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if list.Item(name) < 0 {
		return nil, ErrItemNotFound
	}

	merge(list, name, u.Family(), units.ToBaseUnit(u, delta))
	return list, s.save(ctx, list)
}

// ReplaceItem overwrites the item with the same name, or appends it.
func (s *Service) ReplaceItem(ctx context.Context, userID string, item models.ShoppingItem) (*models.ShoppingList, error) {
	item, err := validate(item)
	if err != nil {
		return nil, err
	}
	list, err := s.getOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	n := units.Normalize(item.Name, item.Unit, item.Quantity)
	replaced := models.ShoppingItem{Name: n.Name, Unit: n.Unit, Quantity: n.Quantity}
	if i := list.Item(item.Name); i >= 0 {
		list.Items[i] = replaced
	} else {
		list.Items = append(list.Items, replaced)
	}
	return list, s.save(ctx, list)
}

func (s *Service) RemoveItem(ctx context.Context, userID, name string) (*models.ShoppingList, error) {
	list, err := s.lists.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := list.Item(strings.TrimSpace(name)); i >= 0 {
		list.Items = append(list.Items[:i], list.Items[i+1:]...)
	}
	return list, s.save(ctx, list)
}

// Clear empties the list and forgets the prepared dishes.
func (s *Service) Clear(ctx context.Context, userID string) (*models.ShoppingList, error) {
	list, err := s.lists.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	list.Items = []models.ShoppingItem{}
	list.PreparedDishes = models.PreparedDishes{}
	return list, s.save(ctx, list)
}

// AddDishes folds the ingredients of every found dish into the list and counts
// each dish as prepared once more. Unknown ids are ignored; it fails only
// when none of the ids match a dish.
func (s *Service) AddDishes(ctx context.Context, userID string, dishIDs []string) (*models.ShoppingList, error) {
	dishes, err := s.dishes.FindByIDs(ctx, dishIDs)
	if err != nil {
		return nil, err
	}
	if len(dishes) == 0 {
		return nil, ErrDishNotFound
	}
	list, err := s.getOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, dish := range dishes {
		for _, ing := range dish.Ingredients {
			ing, err := validate(ing)
			if err != nil {
				s.logger.Warn().Err(err).Str("dish", dish.ID.Hex()).Msg("skipping ingredient")
				continue
			}
			merge(list, ing.Name, ing.Unit.Family(), units.ToBaseUnit(ing.Unit, ing.Quantity))
		}
		list.PreparedDishes.Add(dish.ID.Hex())
	}
	return list, s.save(ctx, list)
}

// RemoveDish subtracts the ingredients of a prepared dish from the list and
// decrements its counter.
func (s *Service) RemoveDish(ctx context.Context, userID, dishID string) (*models.ShoppingList, error) {
	list, err := s.lists.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dish, err := s.dishes.FindByID(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if list.PreparedDishes.Count(dishID) == 0 {
		return nil, ErrDishNotPrepared
	}

	for _, ing := range dish.Ingredients {
		i := list.Item(ing.Name)
		if i < 0 {
			continue
		}
		existing := list.Items[i]
		merge(list, existing.Name, existing.Unit.Family(), -units.ToBaseUnit(ing.Unit, ing.Quantity))
	}
	list.PreparedDishes.Remove(dishID)
	return list, s.save(ctx, list)
}

func (s *Service) getOrNew(ctx context.Context, userID string) (*models.ShoppingList, error) {
	list, err := s.lists.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &models.ShoppingList{
			UserID:         userID,
			Items:          []models.ShoppingItem{},
			PreparedDishes: models.PreparedDishes{},
			CreatedAt:      s.stamp(),
		}, nil
	}
	return list, err
}

func (s *Service) save(ctx context.Context, list *models.ShoppingList) error {
	if list.PreparedDishes == nil {
		list.PreparedDishes = models.PreparedDishes{}
	}
	list.UpdatedAt = s.stamp()
	if err := s.lists.Save(ctx, list); err != nil {
		return err
	}
	s.logger.Debug().Str("userId", list.UserID).Int("items", len(list.Items)).Msg("shopping list saved")
	return nil
}

// stamp truncates to the storage precision so stored and in-memory lists
// compare equal against cart timestamps.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// merge adds base to the item called name and re-normalizes it within family.
// The item is dropped when the total is not positive.
func merge(list *models.ShoppingList, name string, family units.Family, base float64) {
	i := list.Item(name)
	total := base
	if i >= 0 {
		total += units.ToBaseUnit(list.Items[i].Unit, list.Items[i].Quantity)
	}

	if total <= 0 {
		if i >= 0 {
			list.Items = append(list.Items[:i], list.Items[i+1:]...)
		}
		return
	}

	n := units.FromBase(name, family, total)
	item := models.ShoppingItem{Name: n.Name, Unit: n.Unit, Quantity: n.Quantity}
	if i >= 0 {
		list.Items[i] = item
		return
	}
	list.Items = append(list.Items, item)
}

func validate(item models.ShoppingItem) (models.ShoppingItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return item, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	u, err := units.Parse(string(item.Unit))
	if err != nil {
		return item, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	item.Unit = u
	if item.Quantity < 0 {
		return item, fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}
	return item, nil
}

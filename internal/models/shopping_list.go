package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheapcart/internal/units"
)

type ShoppingItem struct {
	Name     string     `bson:"name" json:"name" binding:"required"`
	Unit     units.Unit `bson:"unit" json:"unit" binding:"required"`
	Quantity float64    `bson:"quantity" json:"quantity"`
}

// ShoppingList holds at most one item per name. UpdatedAt moves on every
// mutation and invalidates carts built before it.
type ShoppingList struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"userId"`
	Items          []ShoppingItem     `bson:"items" json:"items"`
	PreparedDishes PreparedDishes     `bson:"preparedDishes" json:"preparedDishes"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Item returns the index of the item called name, or -1.
func (l *ShoppingList) Item(name string) int {
	for i, item := range l.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// PreparedDishes counts how many times each dish was folded into a list.
// Counts never go below one; an entry is dropped when it would reach zero.
type PreparedDishes map[string]int

func (p PreparedDishes) Count(dishID string) int {
	return p[dishID]
}

func (p PreparedDishes) Add(dishID string) {
	p[dishID]++
}

// Remove decrements the counter of dishID and reports whether it was present.
func (p PreparedDishes) Remove(dishID string) bool {
	n, ok := p[dishID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(p, dishID)
		return true
	}
	p[dishID] = n - 1
	return true
}

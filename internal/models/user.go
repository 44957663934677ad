package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavedAddress is an address stored on the user profile.
type SavedAddress struct {
	ID        string `bson:"id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Address   `bson:",inline"`
	IsDefault bool `bson:"isDefault" json:"isDefault"`
}

// User represents the application user account.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Addresses []SavedAddress     `bson:"addresses" json:"addresses"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeliveryAddress returns the default address, or the first one when none is
// flagged. ok is false when the user has no address at all.
func (u User) DeliveryAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a.Address, true
		}
	}
	if len(u.Addresses) == 0 {
		return Address{}, false
	}
	return u.Addresses[0].Address, true
}

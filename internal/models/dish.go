package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Dish struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Ingredients []ShoppingItem     `bson:"ingredients" json:"ingredients"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreCatalog is the cached product listing of one store. Slug is unique.
type StoreCatalog struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug     string             `bson:"slug" json:"slug"`
	Name     string             `bson:"name" json:"name"`
	Products []CatalogProduct   `bson:"products" json:"products"`
}

type CatalogProduct struct {
	ItemID                 string    `bson:"itemId" json:"itemId"`
	Name                   string    `bson:"name" json:"name"`
	UnitInfo               string    `bson:"unit_info" json:"unit_info"`
	Price                  float64   `bson:"price" json:"price"`
	ImageURL               string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	MaxQuantityPerPurchase int       `bson:"max_quantity_per_purchase,omitempty" json:"max_quantity_per_purchase,omitempty"`
	CreatedAt              time.Time `bson:"createdAt" json:"createdAt"`
}

// Store is a delivery venue near an address.
type Store struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	VenueID         string  `json:"venueId"`
	DeliveryBaseFee float64 `json:"deliveryBaseFee"`
}

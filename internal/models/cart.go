package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartProduct struct {
	ItemID   string  `bson:"itemId" json:"itemId"`
	Name     string  `bson:"name" json:"name"`
	UnitInfo string  `bson:"unit_info" json:"unit_info"`
	ImageURL string  `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Price    float64 `bson:"price" json:"price"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// Cart is one store's priced resolution of a shopping list.
type Cart struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShoppingListID  string             `bson:"shoppingListId" json:"shoppingListId"`
	StoreSlug       string             `bson:"storeSlug" json:"storeSlug"`
	StoreName       string             `bson:"storeName" json:"storeName"`
	Address         Address            `bson:"address" json:"address"`
	Products        []CartProduct      `bson:"products" json:"products"`
	MissingProducts StringList         `bson:"missingProducts" json:"missingProducts"`
	DeliveryPrice   float64            `bson:"deliveryPrice" json:"deliveryPrice"`
	TotalCost       float64            `bson:"totalCost" json:"totalCost"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// Recalculate derives TotalCost from the product lines and the delivery price.
func (c *Cart) Recalculate() {
	total := decimal.NewFromFloat(c.DeliveryPrice)
	for _, p := range c.Products {
		total = total.Add(decimal.NewFromFloat(p.Price))
	}
	c.TotalCost = total.Round(2).InexactFloat64()
}

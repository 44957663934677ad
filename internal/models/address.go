package models

import (
	"fmt"
	"strings"
)

// Address is a delivery destination. Carts are cached per shopping list and
// address, so the three fields together form part of the cache key.
type Address struct {
	City     string `bson:"city" json:"city" binding:"required"`
	Street   string `bson:"street" json:"street" binding:"required"`
	Building string `bson:"building" json:"building" binding:"required"`
}

// Query renders the address the way a free-text geocoder expects it.
func (a Address) Query() string {
	return fmt.Sprintf("%s %s, %s", strings.TrimSpace(a.Street), strings.TrimSpace(a.Building), strings.TrimSpace(a.City))
}

func (a Address) IsZero() bool {
	return strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.Street) == "" && strings.TrimSpace(a.Building) == ""
}

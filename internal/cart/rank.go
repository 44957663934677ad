package cart

import (
	"sort"
	"time"

	"cheapcart/internal/models"
)

// Rank orders carts by missing item count, then by total cost. The sort is
// stable so equal carts keep their input order.
func Rank(carts []models.Cart) {
	sort.SliceStable(carts, func(i, j int) bool {
		mi, mj := len(carts[i].MissingProducts), len(carts[j].MissingProducts)
		if mi != mj {
			return mi < mj
		}
		return carts[i].TotalCost < carts[j].TotalCost
	})
}

// IsValid reports whether a persisted cart may still be served: it must not
// predate the last edit of its list and must be younger than ttl.
func IsValid(c models.Cart, listUpdatedAt, now time.Time, ttl time.Duration) bool {
	return !c.CreatedAt.Before(listUpdatedAt) && now.Sub(c.CreatedAt) < ttl
}

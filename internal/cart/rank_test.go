package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"cheapcart/internal/models"
)

func cartOf(slug string, missing int, total float64) models.Cart {
	c := models.Cart{StoreSlug: slug, TotalCost: total}
	for i := 0; i < missing; i++ {
		c.MissingProducts = append(c.MissingProducts, "x")
	}
	return c
}

func slugs(carts []models.Cart) []string {
	out := make([]string, len(carts))
	for i, c := range carts {
		out[i] = c.StoreSlug
	}
	return out
}

func TestRankMissingCountBeforeCost(t *testing.T) {
	carts := []models.Cart{
		cartOf("cheap-but-missing", 1, 5),
		cartOf("complete-expensive", 0, 90),
		cartOf("complete-cheap", 0, 40),
		cartOf("two-missing", 2, 1),
	}

	Rank(carts)

	assert.Equal(t, []string{"complete-cheap", "complete-expensive", "cheap-but-missing", "two-missing"}, slugs(carts))
}

func TestRankIsStable(t *testing.T) {
	carts := []models.Cart{cartOf("first", 0, 10), cartOf("second", 0, 10), cartOf("third", 0, 10)}
	Rank(carts)
	assert.Equal(t, []string{"first", "second", "third"}, slugs(carts))
}

func TestRankOrderingProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		carts := make([]models.Cart, 12)
		for i := range carts {
			carts[i] = cartOf("s", r.Intn(3), float64(r.Intn(50)))
		}

		Rank(carts)

		for i := 1; i < len(carts); i++ {
			prev, cur := carts[i-1], carts[i]
			pm, cm := len(prev.MissingProducts), len(cur.MissingProducts)
			assert.True(t, pm < cm || (pm == cm && prev.TotalCost <= cur.TotalCost))
		}
	}
}

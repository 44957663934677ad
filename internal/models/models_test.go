package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPreparedDishes(t *testing.T) {
	p := PreparedDishes{}
	p.Add("soup")
	p.Add("soup")
	p.Add("salad")

	assert.Equal(t, 2, p.Count("soup"))
	assert.True(t, p.Remove("soup"))
	assert.Equal(t, 1, p.Count("soup"))
	assert.True(t, p.Remove("soup"))
	_, present := p["soup"]
	assert.False(t, present)
	assert.False(t, p.Remove("soup"))
	assert.Equal(t, 1, p.Count("salad"))
}

func TestDeliveryAddress(t *testing.T) {
	_, ok := User{}.DeliveryAddress()
	assert.False(t, ok)

	u := User{Addresses: []SavedAddress{
		{ID: "a", Address: Address{City: "Haifa", Street: "Herzl", Building: "1"}},
		{ID: "b", Address: Address{City: "Tel Aviv", Street: "Dizengoff", Building: "50"}, IsDefault: true},
	}}
	addr, ok := u.DeliveryAddress()
	require.True(t, ok)
	assert.Equal(t, "Tel Aviv", addr.City)

	u.Addresses[1].IsDefault = false
	addr, _ = u.DeliveryAddress()
	assert.Equal(t, "Haifa", addr.City)
}

func TestAddressQuery(t *testing.T) {
	a := Address{City: " Tel Aviv ", Street: "Dizengoff", Building: "50"}
	assert.Equal(t, "Dizengoff 50, Tel Aviv", a.Query())
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestSavedAddressBSONIsFlat(t *testing.T) {
	raw, err := bson.Marshal(SavedAddress{ID: "a", Address: Address{City: "Haifa", Street: "Herzl", Building: "1"}})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "Haifa", doc["city"])
	assert.NotContains(t, doc, "address")
}

func TestStringListDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"missingProducts": "milk"})
	require.NoError(t, err)

	var cart Cart
	require.NoError(t, bson.Unmarshal(raw, &cart))
	assert.Equal(t, StringList{"milk"}, cart.MissingProducts)
}

func TestStringListJSONNeverNull(t *testing.T) {
	out, err := json.Marshal(Cart{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"missingProducts":[]`)
}

func TestCartRecalculate(t *testing.T) {
	c := Cart{
		DeliveryPrice: 5,
		Products: []CartProduct{
			{Price: 0.1},
			{Price: 0.2},
			{Price: 12},
		},
	}
	c.Recalculate()
	assert.Equal(t, 17.3, c.TotalCost)
}

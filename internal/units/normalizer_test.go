package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnit(t *testing.T) {
	assert.Equal(t, 250.0, ToBaseUnit(Gram, 250))
	assert.Equal(t, 1500.0, ToBaseUnit(Kg, 1.5))
	assert.Equal(t, 330.0, ToBaseUnit(Ml, 330))
	assert.Equal(t, 2000.0, ToBaseUnit(Liter, 2))
	assert.Equal(t, 6.0, ToBaseUnit(Unit("units"), 6), "unknown units pass through")
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		unit Unit
		qty  float64
		want Quantity
	}{
		{Gram, 1500, Quantity{"flour", Kg, 1.5}},
		{Gram, 999, Quantity{"flour", Gram, 999}},
		{Kg, 0.25, Quantity{"flour", Gram, 250}},
		{Kg, 2, Quantity{"flour", Kg, 2}},
		{Ml, 1000, Quantity{"flour", Liter, 1}},
		{Liter, 0.5, Quantity{"flour", Ml, 500}},
		{Ml, 333.33333, Quantity{"flour", Ml, 333.333}},
		{Gram, 999.9996, Quantity{"flour", Kg, 1}},
		{Kg, 0.9999996, Quantity{"flour", Kg, 1}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize("flour", tc.unit, tc.qty), "%v %v", tc.qty, tc.unit)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	quantities := []float64{0, 0.0004, 0.5, 0.9994, 0.9999996, 1, 12.3456, 999.4, 999.9996, 1000, 1234.5678, 250000}
	for _, u := range []Unit{Gram, Kg, Ml, Liter} {
		for _, q := range quantities {
			once := Normalize("x", u, q)
			twice := Normalize(once.Name, once.Unit, once.Quantity)
			assert.Equal(t, once, twice, "%v %v", q, u)
		}
	}
}

func TestBaseRoundTrip(t *testing.T) {
	for _, u := range []Unit{Gram, Kg, Ml, Liter} {
		for _, q := range []float64{0.125, 1, 7.5, 950, 1200} {
			base := ToBaseUnit(u, q)
			back := base
			if u == Kg || u == Liter {
				back = base / 1000
			}
			assert.InDelta(t, q, back, 0.0005)

			n := FromBase("x", u.Family(), base)
			assert.InDelta(t, base, ToBaseUnit(n.Unit, n.Quantity), 0.5)
		}
	}
}

func TestParse(t *testing.T) {
	u, err := Parse("liter")
	require.NoError(t, err)
	assert.Equal(t, Liter, u)

	_, err = Parse("cup")
	assert.Error(t, err)
}

func TestParseUnitInfo(t *testing.T) {
	cases := []struct {
		in   string
		qty  float64
		unit Unit
	}{
		{"1000 ml", 1000, Ml},
		{"1 L", 1, Liter},
		{"1,5 l", 1.5, Liter},
		{"500g", 500, Gram},
		{"0.75 kg", 0.75, Kg},
		{"200 gr.", 200, Gram},
	}
	for _, tc := range cases {
		qty, u, err := ParseUnitInfo(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.qty, qty, tc.in)
		assert.Equal(t, tc.unit, u, tc.in)
	}

	for _, bad := range []string{"", "ml", "6 units", "abc"} {
		_, _, err := ParseUnitInfo(bad)
		assert.Error(t, err, bad)
	}
}

func TestNeededUnits(t *testing.T) {
	assert.Equal(t, 1, NeededUnits(1000, 1000))
	assert.Equal(t, 2, NeededUnits(1001, 1000))
	assert.Equal(t, 2, NeededUnits(1500, 1000))
	assert.Equal(t, 3, NeededUnits(2000.5, 1000))
	assert.Equal(t, 0, NeededUnits(0, 1000))
	assert.Equal(t, 3, NeededUnits(0.3, 0.1))
	assert.Equal(t, 1, NeededUnits(100, 0))
}

func TestNeededUnitsNeverUnderProvisions(t *testing.T) {
	assert.Equal(t, 2, NeededUnits(1000*(1+5e-10), 1000))
	assert.Equal(t, 2, NeededUnits(1000+1e-6, 1000))
	assert.Equal(t, 1, NeededUnits(ToBaseUnit(Liter, 1.1), 1100))
	assert.Equal(t, 3, NeededUnits(ToBaseUnit(Liter, 3.3), 1100))
	assert.Equal(t, 7, NeededUnits(0.7, 0.1))
}

func TestUnitsForProduct(t *testing.T) {
	assert.Equal(t, 2, UnitsForProduct("1000 ml", Ml, 1500))
	assert.Equal(t, 2, UnitsForProduct("1 l", Liter, 1.5))
	assert.Equal(t, 3, UnitsForProduct("500 g", Kg, 1.2))
	assert.Equal(t, 1, UnitsForProduct("6 units", Gram, 400))
	assert.Equal(t, 0, UnitsForProduct("1 kg", Gram, 0))
}

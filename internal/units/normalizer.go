package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is a display unit accepted on shopping list items.
type Unit string

const (
	Gram  Unit = "gram"
	Kg    Unit = "kg"
	Ml    Unit = "ml"
	Liter Unit = "liter"
)

// Family groups units that fold onto the same base unit.
type Family int

const (
	Unknown Family = iota
	Mass
	Volume
)

const foldFactor = 1000

var aliases = map[string]Unit{
	"g":      Gram,
	"gr":     Gram,
	"gram":   Gram,
	"grams":  Gram,
	"kg":     Kg,
	"kgs":    Kg,
	"kilo":   Kg,
	"ml":     Ml,
	"l":      Liter,
	"lt":     Liter,
	"ltr":    Liter,
	"liter":  Liter,
	"liters": Liter,
	"litre":  Liter,
	"litres": Liter,
}

// Parse validates a display unit. Only the four canonical names are accepted.
func Parse(s string) (Unit, error) {
	u := Unit(strings.TrimSpace(s))
	switch u {
	case Gram, Kg, Ml, Liter:
		return u, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

func (u Unit) Family() Family {
	switch u {
	case Gram, Kg:
		return Mass
	case Ml, Liter:
		return Volume
	}
	return Unknown
}

// Base returns the base unit of the family u belongs to, or u itself when the
// unit is not recognized.
func (u Unit) Base() Unit {
	switch u.Family() {
	case Mass:
		return Gram
	case Volume:
		return Ml
	}
	return u
}

// ToBaseUnit folds quantity into grams or millilitres. Unrecognized units pass
// through unchanged.
func ToBaseUnit(u Unit, quantity float64) float64 {
	switch u {
	case Kg, Liter:
		return quantity * foldFactor
	}
	return quantity
}

// Quantity is a named amount in a display unit.
type Quantity struct {
	Name     string
	Unit     Unit
	Quantity float64
}

// Normalize re-expresses quantity in the nicest unit of its family and rounds
// to three decimals. Unit choice is made on rounded values so normalizing an
// already normalized value is a no-op.
func Normalize(name string, u Unit, quantity float64) Quantity {
	switch u {
	case Gram, Ml:
		if round3(quantity) >= foldFactor {
			return Quantity{Name: name, Unit: larger(u), Quantity: round3(quantity / foldFactor)}
		}
	case Kg, Liter:
		if small := round3(quantity * foldFactor); small < foldFactor {
			return Quantity{Name: name, Unit: u.Base(), Quantity: small}
		}
	}
	return Quantity{Name: name, Unit: u, Quantity: round3(quantity)}
}

func larger(u Unit) Unit {
	if u == Ml {
		return Liter
	}
	return Kg
}

// FromBase normalizes a base quantity expressed in the base unit of family.
func FromBase(name string, family Family, base float64) Quantity {
	if family == Volume {
		return Normalize(name, Ml, base)
	}
	return Normalize(name, Gram, base)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ParseUnitInfo reads store unit-info text such as "1000 ml", "1.5 L" or
// "500g" into a quantity and a canonical unit.
func ParseUnitInfo(info string) (float64, Unit, error) {
	s := strings.ToLower(strings.TrimSpace(info))
	if s == "" {
		return 0, "", fmt.Errorf("empty unit info")
	}

	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	if end == 0 {
		return 0, "", fmt.Errorf("unit info %q has no quantity", info)
	}

	qty, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", "."), 64)
	if err != nil {
		return 0, "", fmt.Errorf("unit info %q: %w", info, err)
	}

	fields := strings.Fields(s[end:])
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("unit info %q has no unit", info)
	}
	u, ok := aliases[strings.TrimSuffix(fields[0], ".")]
	if !ok {
		return qty, Unit(fields[0]), fmt.Errorf("unit info %q: unknown unit %q", info, fields[0])
	}
	return qty, u, nil
}

// NeededUnits returns how many purchasable units of size productBase cover
// requiredBase. It always rounds up.
func NeededUnits(requiredBase, productBase float64) int {
	if requiredBase <= 0 {
		return 0
	}
	if productBase <= 0 {
		return 1
	}
	n := math.Floor(requiredBase / productBase)
	if requiredBase-n*productBase > requiredBase*coverTolerance {
		n++
	}
	return int(n)
}

// coverTolerance absorbs float error from unit folding (1.1 l is
// 1100.0000000000002 ml) without ignoring a real shortfall.
const coverTolerance = 1e-12

// UnitsForProduct computes the purchase count of a product described by
// unitInfo needed to cover quantity of unit u. Products whose unit info cannot
// be read are bought once.
func UnitsForProduct(unitInfo string, u Unit, quantity float64) int {
	required := ToBaseUnit(u, quantity)
	if required <= 0 {
		return 0
	}
	qty, pu, err := ParseUnitInfo(unitInfo)
	if err != nil || qty <= 0 {
		return 1
	}
	return NeededUnits(required, ToBaseUnit(pu, qty))
}

package stock

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// Canonical storage units. Mass is kept in kilograms, volume in litres,
// countable goods in units. Conversion happens here, never inside the ledger.
const (
	UnitKilogram = "kg"
	UnitLitre    = "l"
	UnitPiece    = "unit"
)

type dimension int

const (
	dimMass dimension = iota
	dimVolume
	dimCount
)

type unitDef struct {
	dim       dimension
	canonical string
	factor    decimal.Decimal
}

var thousandth = decimal.New(1, -3)

var units = map[string]unitDef{
	"g":    {dimMass, UnitKilogram, thousandth},
	"kg":   {dimMass, UnitKilogram, decimal.New(1, 0)},
	"ml":   {dimVolume, UnitLitre, thousandth},
	"l":    {dimVolume, UnitLitre, decimal.New(1, 0)},
	"unit": {dimCount, UnitPiece, decimal.New(1, 0)},
}

var unitAliases = map[string]string{
	"units":    "unit",
	"piece":    "unit",
	"pieces":   "unit",
	"unité":    "unit",
	"unités":   "unit",
	"unité(s)": "unit",
	"litre":    "l",
	"litres":   "l",
	"gram":     "g",
	"grams":    "g",
}

func lookupUnit(raw string) (unitDef, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := unitAliases[name]; ok {
		name = alias
	}
	def, ok := units[name]
	if !ok {
		return unitDef{}, fmt.Errorf("stock: unknown unit %q: %w", raw, shared.ErrValidation)
	}
	return def, nil
}

// NormalizeQuantity converts a quantity expressed in any supported unit into
// its canonical unit. An empty unit defaults to countable pieces.
func NormalizeQuantity(qty decimal.Decimal, unit string) (decimal.Decimal, string, error) {
	if unit == "" {
		return qty, UnitPiece, nil
	}
	def, err := lookupUnit(unit)
	if err != nil {
		return decimal.Zero, "", err
	}
	return qty.Mul(def.factor), def.canonical, nil
}

// CheckCompatible rejects mixing mass and volume units; converting between
// them would need a density the ledger does not know.
func CheckCompatible(unitA, unitB string) error {
	if unitA == "" || unitB == "" {
		return nil
	}
	defA, err := lookupUnit(unitA)
	if err != nil {
		return err
	}
	defB, err := lookupUnit(unitB)
	if err != nil {
		return err
	}
	if (defA.dim == dimMass && defB.dim == dimVolume) || (defA.dim == dimVolume && defB.dim == dimMass) {
		return fmt.Errorf("stock: cannot convert %q to %q without a density: %w", unitA, unitB, shared.ErrUnitMismatch)
	}
	return nil
}

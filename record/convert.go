package record

import (
	"fmt"
	"math"
	"time"
)

// MinorUnitExponents gives the number of decimal digits each currency's
// minor unit represents (e.g. cents for USD). Currencies absent from this
// table default to 2.
var MinorUnitExponents = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// ToMinorUnits converts a decimal amount (e.g. 19.99) into its integer minor
// unit representation (e.g. 1999 cents) for the given ISO currency code.
func ToMinorUnits(amount float64, currency string) int64 {
	exp := minorExponent(currency)
	scale := math.Pow10(exp)
	return int64(math.Round(amount * scale))
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency string) float64 {
	exp := minorExponent(currency)
	scale := math.Pow10(exp)
	return float64(minor) / scale
}

func minorExponent(currency string) int {
	if exp, ok := MinorUnitExponents[currency]; ok {
		return exp
	}
	return 2
}

// UnitConversionTable maps a (fromUnit, toUnit) pair to a multiplicative
// factor. Only same-dimension conversions are listed; cross-dimension
// lookups return (0, false).
var UnitConversionTable = map[[2]string]float64{
	{"g", "kg"}:  0.001,
	{"kg", "g"}:  1000,
	{"lb", "kg"}: 0.45359237,
	{"kg", "lb"}: 1 / 0.45359237,
	{"oz", "g"}:  28.349523125,
	{"g", "oz"}:  1 / 28.349523125,

	{"mm", "cm"}: 0.1,
	{"cm", "mm"}: 10,
	{"cm", "m"}:  0.01,
	{"m", "cm"}:  100,
	{"m", "km"}:  0.001,
	{"km", "m"}:  1000,
	{"in", "cm"}: 2.54,
	{"cm", "in"}: 1 / 2.54,
	{"ft", "m"}:  0.3048,
	{"m", "ft"}:  1 / 0.3048,

	{"ml", "l"}: 0.001,
	{"l", "ml"}: 1000,
	{"gal", "l"}: 3.785411784,
	{"l", "gal"}: 1 / 3.785411784,
}

// ConvertUnit converts amount from one unit to another using
// UnitConversionTable. An unknown (from, to) pair is not an error: it
// converts at factor 1, per the helper's documented fallback.
func ConvertUnit(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	factor, ok := UnitConversionTable[[2]string{from, to}]
	if !ok {
		return amount
	}
	return amount * factor
}

// ParseDate parses a date/time string against a small set of common layouts
// used by extract adapters (RFC3339, date-only, and a couple of regional
// date formats), returning the first layout that matches.
func ParseDate(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("record: unrecognized date format %q: %w", value, lastErr)
}

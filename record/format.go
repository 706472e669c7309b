package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// currencySymbols covers the small set of currencies an illustrative
// adapter set is likely to see; anything absent falls back to the ISO code
// itself as its own symbol.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "CA$",
	"AUD": "A$",
}

// FormatCurrency renders a decimal amount with the currency's minor-unit
// precision and a locale-appropriate symbol placement. locale is an IETF
// tag such as "en-US" or "de-DE"; unrecognized locales fall back to
// "en-US" conventions (symbol prefix, "." decimal separator).
func FormatCurrency(amount float64, currency, locale string) string {
	exp := minorExponent(currency)
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	numStr := FormatNumber(amount, exp, locale)
	if isSuffixLocale(locale) {
		return numStr + " " + symbol
	}
	return symbol + numStr
}

func isSuffixLocale(locale string) bool {
	switch strings.ToLower(locale) {
	case "de-de", "fr-fr", "pl-pl", "sv-se":
		return true
	default:
		return false
	}
}

// FormatNumber renders a float with the given decimal precision, using the
// locale's grouping and decimal separators. European-family locales use
// "." as the thousands separator and "," as the decimal point; all others
// use the reverse.
func FormatNumber(v float64, precision int, locale string) string {
	neg := v < 0
	if neg {
		v = -v
	}
	fixed := strconv.FormatFloat(v, 'f', precision, 64)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	grouped := groupThousands(intPart)

	decimalSep, groupSep := ".", ","
	if usesCommaDecimal(locale) {
		decimalSep, groupSep = ",", "."
	}
	grouped = strings.ReplaceAll(grouped, ",", groupSep)

	out := grouped
	if precision > 0 {
		out += decimalSep + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func usesCommaDecimal(locale string) bool {
	switch strings.ToLower(locale) {
	case "de-de", "fr-fr", "pl-pl", "sv-se", "pt-br", "es-es":
		return true
	default:
		return false
	}
}

func groupThousands(intPart string) string {
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return signPrefix(neg) + intPart
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(intPart[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return signPrefix(neg) + b.String()
}

func signPrefix(neg bool) string {
	if neg {
		return "-"
	}
	return ""
}

// dateLayouts maps a small set of locale-ish format names to Go reference
// layouts. Unknown names are treated as a literal Go layout string, letting
// callers pass one through directly.
var dateLayouts = map[string]string{
	"short":     "01/02/2006",
	"long":      "January 2, 2006",
	"iso":       "2006-01-02",
	"iso-time":  "2006-01-02T15:04:05Z07:00",
	"rfc3339":   time.RFC3339,
}

// FormatDate formats t according to a named layout (see dateLayouts) or,
// when the name isn't recognized, treats layout as a literal Go reference
// layout.
func FormatDate(t time.Time, layout string) string {
	if goLayout, ok := dateLayouts[strings.ToLower(layout)]; ok {
		return t.Format(goLayout)
	}
	return t.Format(layout)
}

var templatePlaceholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// FormatTemplate expands `{{dotted.path}}` placeholders in s against data,
// substituting the empty string for any path that doesn't resolve.
func FormatTemplate(s string, data Record) string {
	return templatePlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		path := templatePlaceholder.FindStringSubmatch(match)[1]
		v, ok := Get(data, path)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

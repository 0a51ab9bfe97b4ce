package listing

import (
	"strconv"
	"strings"
	"unicode"
)

var currencySymbols = map[string]string{
	"€":  "EUR",
	"£":  "GBP",
	"$":  "USD",
	"zł": "PLN",
	"kč": "CZK",
}

// ParsePrice extracts the amount and currency from a display price such as
// "12,50 €" or "£1,299.00". ok is false when no amount can be found.
func ParsePrice(display string) (amount float64, currency string, ok bool) {
	s := strings.TrimSpace(display)
	if s == "" {
		return 0, "", false
	}
	lower := strings.ToLower(s)
	for sym, code := range currencySymbols {
		if strings.Contains(lower, sym) {
			currency = code
			break
		}
	}
	if currency == "" {
		for _, field := range strings.Fields(s) {
			if len(field) == 3 && isUpperASCII(field) {
				currency = field
				break
			}
		}
	}

	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			digits.WriteRune(r)
		}
	}
	num := normaliseDecimal(digits.String())
	if num == "" {
		return 0, currency, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, currency, false
	}
	return v, currency, true
}

// normaliseDecimal treats the last '.' or ',' followed by one or two digits as
// the decimal separator and strips every other separator.
func normaliseDecimal(s string) string {
	s = strings.Trim(s, ".,")
	if s == "" {
		return ""
	}
	sep := strings.LastIndexAny(s, ".,")
	if sep >= 0 && len(s)-sep-1 <= 2 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:sep])
		return intPart + "." + s[sep+1:]
	}
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

func isUpperASCII(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

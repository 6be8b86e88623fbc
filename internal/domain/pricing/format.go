// internal/domain/pricing/format.go
package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// CurrencySymbol prefixes every displayed amount
const CurrencySymbol = "₹"

// ErrInvalidPrice is returned when a display string carries no number
var ErrInvalidPrice = errors.New("invalid price")

// FormatPrice renders a price the way the storefront shows it: the currency
// symbol followed by the shortest decimal form (250 -> ₹250, 12.5 -> ₹12.5).
func FormatPrice(price float64) string {
	return CurrencySymbol + strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatAmount renders a computed amount rounded to whole currency units
func FormatAmount(amount float64) string {
	return CurrencySymbol + strconv.FormatFloat(RoundUnits(amount), 'f', 0, 64)
}

// RoundUnits rounds half away from zero to whole currency units
func RoundUnits(amount float64) float64 {
	return math.Round(amount)
}

// ParsePrice extracts a number from a display string such as "₹1,250.00"
// by discarding every character other than digits and dots, then reading the
// longest leading decimal ("1.2.3" parses as 1.2).
func ParsePrice(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	end := 0
	seenDot := false
	seenDigit := false
	for end < len(cleaned) {
		c := cleaned[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			seenDigit = true
		}
		end++
	}
	if !seenDigit {
		return 0, ErrInvalidPrice
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(cleaned[:end], "."), 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	return value, nil
}

// OptionLabel is the text of a variant option, e.g. "100ml — ₹250"
func OptionLabel(variant string, price float64) string {
	return variant + " — " + FormatPrice(price)
}

// SimpleDisplay is the price line of a product without a variant selector
func SimpleDisplay(variant string, price float64) string {
	if variant == DefaultVariant {
		return FormatPrice(price)
	}
	return FormatPrice(price) + " (" + variant + ")"
}

// FormatDisplay is the primary price line of a product: its single price, or
// the range across its variants.
func FormatDisplay(src Source, product string) (string, bool) {
	low, high, ok := priceRange(src, product)
	if !ok {
		return "", false
	}
	if low == high {
		return FormatPrice(low), true
	}
	return FormatPrice(low) + " - " + FormatPrice(high), true
}

// FormattedPrice is the short price shown on featured product cards
func FormattedPrice(src Source, product string) (string, bool) {
	low, high, ok := priceRange(src, product)
	if !ok {
		return "", false
	}
	if low == high {
		return FormatPrice(low), true
	}
	return "From " + FormatPrice(low), true
}

func priceRange(src Source, product string) (float64, float64, bool) {
	if src == nil {
		return 0, 0, false
	}
	variants, ok := src.Variants(product)
	if !ok || len(variants) == 0 {
		return 0, 0, false
	}

	low, high := variants[0].Price, variants[0].Price
	for _, v := range variants[1:] {
		low = math.Min(low, v.Price)
		high = math.Max(high, v.Price)
	}
	return low, high, true
}

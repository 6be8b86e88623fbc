// internal/domain/cart/checkout.go
package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// HandOff opens the outbound messaging link. No response is read back.
type HandOff interface {
	Open(url string) error
}

// HandOffFunc adapts a function to HandOff
type HandOffFunc func(url string) error

// Open calls f
func (f HandOffFunc) Open(url string) error { return f(url) }

// CheckoutSettings configures the order hand-off
type CheckoutSettings struct {
	ShopName    string
	PhoneNumber string // International format without "+", e.g. 919559041204
}

// DefaultCheckoutSettings returns the settings the storefront ships with
func DefaultCheckoutSettings() CheckoutSettings {
	return CheckoutSettings{
		ShopName:    "Vardan Naturals Website",
		PhoneNumber: "919559041204",
	}
}

// OrderMessage formats the cart as the plain-text order sent to the shop
func OrderMessage(shopName string, items []LineItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🛒 *New Order from %s*\n\n", shopName)

	for i, item := range items {
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, item.Name)
		if item.Variant != "" {
			fmt.Fprintf(&b, "   Variant: %s\n", item.Variant)
		}
		fmt.Fprintf(&b, "   Price: %s\n", item.PriceText)
		fmt.Fprintf(&b, "   Quantity: %d\n", item.Quantity)
		fmt.Fprintf(&b, "   Subtotal: %s\n\n", pricing.FormatAmount(item.Subtotal()))
	}

	b.WriteString("───────────────\n")
	fmt.Fprintf(&b, "*Total Amount: %s*\n\n", pricing.FormatAmount(CalculateTotal(items)))
	b.WriteString("Please confirm availability and delivery details. Thank you! 🙏")

	return b.String()
}

// componentUnescaper turns QueryEscape output into URI component encoding:
// spaces as %20 and the marks !*'() left literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// HandOffURL builds the pre-filled chat link for a message
func HandOffURL(phoneNumber, message string) string {
	text := componentUnescaper.Replace(url.QueryEscape(message))
	return fmt.Sprintf("https://wa.me/%s?text=%s", phoneNumber, text)
}

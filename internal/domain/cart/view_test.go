package cart

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartPage = `<html><body>
<nav><span id="navCartCount">9</span></nav>
<div id="cartItemsContainer"></div>
<span id="subtotal"></span><span id="totalAmount"></span>
<button id="checkoutBtn">Order on WhatsApp</button>
</body></html>`

func parsePage(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestDOMView_RenderItems(t *testing.T) {
	doc := parsePage(t, cartPage)
	view := NewDOMView(doc)
	require.True(t, view.Active())

	view.Render(NewSnapshot([]LineItem{
		{Name: "Neem Oil", Price: 250, PriceText: "₹250", Variant: "100ml", Quantity: 2, Image: "img/neem.jpg"},
		{Name: "Soap <b>", Price: 80, PriceText: "₹80", Quantity: 1},
	}))

	items := doc.Find(".cart-item")
	require.Equal(t, 2, items.Length())

	first := items.Eq(0)
	assert.Equal(t, "Neem Oil", first.Find(".cart-item-name").Text())
	assert.Equal(t, "Variant: 100ml", first.Find(".cart-item-variant").Text())
	assert.Equal(t, "₹250", first.Find(".cart-item-price").Text())
	assert.Equal(t, "2", first.Find(".qty-display").Text())
	assert.Equal(t, "₹500", first.Find(".cart-item-subtotal").Text())
	assert.Equal(t, "₹250 × 2", first.Find(".cart-item-breakdown").Text())
	src, _ := first.Find("img").Attr("src")
	assert.Equal(t, "img/neem.jpg", src)

	second := items.Eq(1)
	assert.Equal(t, "Soap <b>", second.Find(".cart-item-name").Text())
	assert.Equal(t, 0, second.Find(".cart-item-variant").Length())
	assert.Equal(t, 1, second.Find(".cart-item-placeholder").Length())
	delta, _ := second.Find(".qty-btn").First().Attr("data-delta")
	assert.Equal(t, "-1", delta)
	index, _ := second.Find(".remove-btn").Attr("data-index")
	assert.Equal(t, "1", index)

	assert.Equal(t, "₹580", doc.Find("#subtotal").Text())
	assert.Equal(t, doc.Find("#subtotal").Text(), doc.Find("#totalAmount").Text())
	_, disabled := doc.Find("#checkoutBtn").Attr("disabled")
	assert.False(t, disabled)
}

func TestDOMView_RenderEmpty(t *testing.T) {
	doc := parsePage(t, cartPage)
	view := NewDOMView(doc)

	view.Render(NewSnapshot(nil))

	assert.Equal(t, 1, doc.Find(".cart-empty-state").Length())
	assert.Equal(t, "Your cart is empty", doc.Find(".cart-empty-state h2").Text())
	href, _ := doc.Find(".shop-now-btn").Attr("href")
	assert.Equal(t, "index.html#products", href)
	assert.Equal(t, "₹0", doc.Find("#subtotal").Text())
	assert.Equal(t, "₹0", doc.Find("#totalAmount").Text())
	_, disabled := doc.Find("#checkoutBtn").Attr("disabled")
	assert.True(t, disabled)
}

func TestDOMView_UpdateCountAndMissingHooks(t *testing.T) {
	doc := parsePage(t, `<html><body><span id="cartCount"></span><span id="navCartCount"></span></body></html>`)
	view := NewDOMView(doc)

	assert.False(t, view.Active())
	view.Render(NewSnapshot([]LineItem{{Name: "Soap", Price: 80, PriceText: "₹80", Quantity: 1}}))
	view.UpdateCount(4)

	assert.Equal(t, "4", doc.Find("#cartCount").Text())
	assert.Equal(t, "4", doc.Find("#navCartCount").Text())
	assert.Equal(t, 0, doc.Find(".cart-item").Length())
}

// internal/domain/cart/view.go
package cart

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// Page hooks of the cart view
const (
	SelectorItemsContainer = "#cartItemsContainer"
	SelectorSubtotal       = "#subtotal"
	SelectorTotal          = "#totalAmount"
	SelectorCheckoutButton = "#checkoutBtn"
	SelectorCountIndicator = "#navCartCount, #cartCount"
)

var emptyCartTemplate = template.Must(template.New("empty").Parse(`
<div class="cart-empty-state">
    <div class="cart-empty-icon">🛍️</div>
    <h2>Your cart is empty</h2>
    <p>Looks like you haven't added anything to your cart yet.</p>
    <a href="index.html#products" class="shop-now-btn">🌿 Start Shopping</a>
</div>
`))

var cartItemsTemplate = template.Must(template.New("items").Parse(`
{{- range .}}
<div class="cart-item" data-index="{{.Index}}">
    {{- if .Image}}
    <img src="{{.Image}}" class="cart-item-image" alt="{{.Name}}">
    {{- else}}
    <div class="cart-item-image cart-item-placeholder">🌿</div>
    {{- end}}
    <div class="cart-item-details">
        <div class="cart-item-name">{{.Name}}</div>
        {{- if .Variant}}
        <div class="cart-item-variant">Variant: {{.Variant}}</div>
        {{- end}}
        <div class="cart-item-price">{{.PriceText}}</div>
        <div class="cart-item-actions">
            <div class="quantity-control">
                <button class="qty-btn" data-index="{{.Index}}" data-delta="-1">−</button>
                <span class="qty-display">{{.Quantity}}</span>
                <button class="qty-btn" data-index="{{.Index}}" data-delta="1">+</button>
            </div>
            <button class="remove-btn" data-index="{{.Index}}" title="Remove item">🗑️</button>
        </div>
    </div>
    <div class="cart-item-totals">
        <div class="cart-item-subtotal">{{.SubtotalText}}</div>
        <div class="cart-item-breakdown">{{.Breakdown}}</div>
    </div>
</div>
{{- end}}
`))

// DOMView renders the cart into a parsed page
type DOMView struct {
	doc *goquery.Document
}

// NewDOMView wraps a page document
func NewDOMView(doc *goquery.Document) *DOMView {
	return &DOMView{doc: doc}
}

// Active reports whether the page hosts the cart view
func (v *DOMView) Active() bool {
	return v.doc.Find(SelectorItemsContainer).Length() > 0
}

// Render regenerates the cart view. Pages without the hooks are left alone.
func (v *DOMView) Render(snap Snapshot) {
	container := v.doc.Find(SelectorItemsContainer)
	if container.Length() == 0 {
		return
	}

	checkout := v.doc.Find(SelectorCheckoutButton)

	if snap.Empty {
		container.SetHtml(execute(emptyCartTemplate, nil))
		v.doc.Find(SelectorSubtotal).SetText(pricing.FormatAmount(0))
		v.doc.Find(SelectorTotal).SetText(pricing.FormatAmount(0))
		checkout.SetAttr("disabled", "disabled")
		return
	}

	container.SetHtml(execute(cartItemsTemplate, snap.Items))
	v.doc.Find(SelectorSubtotal).SetText(snap.SubtotalText)
	v.doc.Find(SelectorTotal).SetText(snap.TotalText)
	checkout.RemoveAttr("disabled")
}

// UpdateCount writes count into every count indicator on the page
func (v *DOMView) UpdateCount(count int) {
	v.doc.Find(SelectorCountIndicator).SetText(strconv.Itoa(count))
}

func execute(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// templates are static; a failure here is a programming error
		panic(err)
	}
	return buf.String()
}

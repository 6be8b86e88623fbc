package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vardan-naturals/storefront/internal/config"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
	"golang.org/x/crypto/bcrypt"
)

const indexHTML = `<html><body>
<nav><span id="navCartCount">0</span></nav>
<div class="products-container">
  <div class="product-item">
    <div class="product-image"><img src="soap.jpg"></div>
    <h3 class="product-name">Herbal Soap</h3>
    <p class="product-price">₹70</p>
    <button class="add-to-cart-btn">Add</button>
  </div>
</div>
</body></html>`

const cartHTML = `<html><body>
<nav><span id="navCartCount">0</span></nav>
<div id="cartItemsContainer"></div>
<span id="subtotal"></span><span id="totalAmount"></span>
<button id="checkoutBtn">Order on WhatsApp</button>
</body></html>`

const adminPassword = "Neem#Oil2024"

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t       *testing.T
	server  *Server
	storage *cart.MemoryStorage
	prices  *pricing.Table
	cookies []*http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.html"), []byte(cartHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		App:      config.AppConfig{Name: "storefront-test", Environment: "test"},
		Server:   config.ServerConfig{Port: "0", MaxBodySize: 1 << 20, RequestTimeout: 5 * time.Second},
		Storage:  config.StorageConfig{Driver: config.StorageMemory, CartKey: "vardanCart"},
		JWT:      config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
		Admin:    config.AdminConfig{Email: "admin@example.com", PasswordHash: string(hash)},
		Site:     config.SiteConfig{Dir: dir, IndexPage: "index.html"},
		Checkout: config.CheckoutConfig{PhoneNumber: "919559041204", ShopName: "Vardan Naturals Website", ClearDelay: 1500 * time.Millisecond},
	}

	logger, _ := test.NewNullLogger()
	h := &harness{
		t:       t,
		storage: cart.NewMemoryStorage(),
		prices: pricing.NewTable(
			pricing.Product{Name: "Herbal Soap", Variants: []pricing.Variant{{Name: pricing.DefaultVariant, Price: 80}}},
		),
	}
	h.server = NewServer(Dependencies{
		Config:  cfg,
		Logger:  logger,
		Storage: h.storage,
		Prices:  h.prices,
	})
	t.Cleanup(func() { h.server.stopLive() })
	return h
}

func (h *harness) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		h.cookies = cookies
	}
	return w
}

type envelope struct {
	Message       string          `json:"message"`
	Error         string          `json:"error"`
	Data          json.RawMessage `json:"data"`
	Notifications []cart.Message  `json:"notifications"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func snapshotOf(t *testing.T, env envelope) cart.Snapshot {
	t.Helper()
	var snap cart.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", "").Code)
	w := h.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":1`)
}

func TestCartFlow(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Neem Oil","price":"₹250","variant":"100ml"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, []cart.Message{{Kind: cart.MessageNotice, Text: cart.NoticeAdded}}, env.Notifications)
	require.Len(t, h.cookies, 1)

	w = h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Neem Oil","price":"₹250","variant":"100ml"}`)
	env = decode(t, w)
	assert.Equal(t, cart.NoticeQuantityUpdated, env.Notifications[0].Text)

	w = h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Herbal Soap","price":80}`)
	snap := snapshotOf(t, decode(t, w))
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, "₹580", snap.TotalText)

	w = h.do(http.MethodGet, "/api/v1/cart/count", "")
	assert.JSONEq(t, `{"data":{"count":3}}`, w.Body.String())

	// the cart is persisted under the session key
	raw, ok, err := h.storage.Get(t.Context(), "vardanCart:"+h.cookies[0].Value)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"priceText":"₹250"`)

	w = h.do(http.MethodPatch, "/api/v1/cart/items/1", `{"delta":1}`)
	snap = snapshotOf(t, decode(t, w))
	assert.Equal(t, 2, snap.Items[1].Quantity)

	// dropping to zero without confirmation keeps the line
	h.do(http.MethodPatch, "/api/v1/cart/items/1", `{"delta":-1}`)
	w = h.do(http.MethodPatch, "/api/v1/cart/items/1", `{"delta":-1}`)
	env = decode(t, w)
	snap = snapshotOf(t, env)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 1, snap.Items[1].Quantity)
	assert.Equal(t, []cart.Message{{Kind: cart.MessageConfirm, Text: cart.PromptRemoveItem}}, env.Notifications)

	w = h.do(http.MethodDelete, "/api/v1/cart/items/1?confirm=true", "")
	env = decode(t, w)
	assert.Len(t, snapshotOf(t, env).Items, 1)
	assert.Equal(t, cart.NoticeItemRemoved, env.Notifications[1].Text)

	// out of range indexes are ignored
	w = h.do(http.MethodDelete, "/api/v1/cart/items/7?confirm=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, snapshotOf(t, decode(t, w)).Items, 1)

	w = h.do(http.MethodDelete, "/api/v1/cart", "")
	assert.Len(t, snapshotOf(t, decode(t, w)).Items, 1)

	w = h.do(http.MethodDelete, "/api/v1/cart?confirm=true", "")
	env = decode(t, w)
	assert.True(t, snapshotOf(t, env).Empty)
	assert.Equal(t, cart.NoticeCartCleared, env.Notifications[len(env.Notifications)-1].Text)
}

func TestCartValidation(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/v1/cart/items", `{"price":"₹250"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Soap","price":"free"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Soap","price":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/api/v1/cart/items/x", `{"delta":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/api/v1/cart/items/0", `{}`).Code)
}

func TestCheckout(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/cart/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, []cart.Message{{Kind: cart.MessageAlert, Text: cart.AlertEmptyCart}}, env.Notifications)

	h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Herbal Soap","price":"₹80"}`)

	// declining the clear keeps the cart
	w = h.do(http.MethodPost, "/api/v1/cart/checkout", `{"clear_after_checkout":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Order      cart.Order    `json:"order"`
		Cart       cart.Snapshot `json:"cart"`
		ClearAfter int64         `json:"clear_prompt_after_ms"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Contains(t, data.Order.Message, "1. *Herbal Soap*")
	link, err := url.Parse(data.Order.URL)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", link.Host)
	assert.Equal(t, data.Order.Message, link.Query().Get("text"))
	assert.False(t, data.Cart.Empty)
	assert.Equal(t, int64(1500), data.ClearAfter)

	w = h.do(http.MethodPost, "/api/v1/cart/checkout", `{"clear_after_checkout":true}`)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.True(t, data.Cart.Empty)
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Herbal Soap","price":"₹80"}`)

	h.cookies = nil
	w := h.do(http.MethodGet, "/api/v1/cart", "")
	assert.True(t, snapshotOf(t, decode(t, w)).Empty)
}

func TestPages(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Herbal Soap","price":"₹80"}`)
	h.do(http.MethodPost, "/api/v1/cart/items", `{"name":"Herbal Soap","price":"₹80"}`)

	w := h.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "₹80", doc.Find(".product-price").Text())
	assert.Equal(t, "2", doc.Find("#navCartCount").Text())

	w = h.do(http.MethodGet, "/cart.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err = goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(".cart-item").Length())
	assert.Equal(t, "₹160", doc.Find("#totalAmount").Text())

	// a price change reaches the next page view
	require.NoError(t, h.prices.Set("Herbal Soap", pricing.DefaultVariant, 95))
	doc, err = goquery.NewDocumentFromReader(h.do(http.MethodGet, "/index.html", "").Body)
	require.NoError(t, err)
	assert.Equal(t, "₹95", doc.Find(".product-price").Text())

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/style.css", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/missing.html", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/../../etc/passwd", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/nothing", "").Code)
}

func login(t *testing.T, h *harness) string {
	t.Helper()
	w := h.do(http.MethodPost, "/api/v1/auth/login", `{"email":"admin@example.com","password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return data.AccessToken
}

func TestAdminPrices(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/auth/login", `{"email":"admin@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/admin/prices", "").Code)

	bearer := "Bearer " + login(t, h)

	w = h.do(http.MethodGet, "/api/v1/admin/prices", "", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Herbal Soap"`)

	w = h.do(http.MethodPut, "/api/v1/admin/prices", `{"product":"Neem Oil","variant":"100ml","price":250}`, "Authorization", bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	price, ok := h.prices.Price("Neem Oil", "100ml")
	require.True(t, ok)
	assert.Equal(t, 250.0, price)

	w = h.do(http.MethodPut, "/api/v1/admin/prices", `{"product":"Neem Oil","price":-1}`, "Authorization", bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/v1/admin/prices/export", "", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "vardan-prices-")
	assert.Equal(t, "Product Name,Variant,Price\n"+
		`"Herbal Soap","default",80`+"\n"+
		`"Neem Oil","100ml",250`+"\n", w.Body.String())

	w = h.do(http.MethodGet, "/api/v1/admin/prices/verify?page=index.html", "", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"loaded":1`)

	w = h.do(http.MethodGet, "/api/v1/admin/prices/updates", "", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"html_price":"₹70"`)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/prices/verify?page=style.css", "", "Authorization", bearer).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/admin/prices/verify?page=none.html", "", "Authorization", bearer).Code)
}

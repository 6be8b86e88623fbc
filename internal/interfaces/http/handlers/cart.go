// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	sessions   *CartSessions
	clearDelay time.Duration
	logger     logrus.FieldLogger
}

// NewCartHandler creates a new cart handler. clearDelay is how long clients
// wait after the hand-off before offering to clear the cart.
func NewCartHandler(sessions *CartSessions, clearDelay time.Duration, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		sessions:   sessions,
		clearDelay: clearDelay,
		logger:     logger,
	}
}

// PriceText accepts a display price ("₹250") or a bare JSON number
type PriceText string

// UnmarshalJSON implements json.Unmarshaler
func (p *PriceText) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = PriceText(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return errors.New("price must be a string or a number")
	}
	*p = PriceText(number.String())
	return nil
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	Name    string    `json:"name" binding:"required"`
	Price   PriceText `json:"price" binding:"required"`
	Variant string    `json:"variant"`
	Image   string    `json:"image"`
}

// UpdateItemRequest is the body of PATCH /cart/items/:index
type UpdateItemRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// CheckoutRequest is the optional body of POST /cart/checkout
type CheckoutRequest struct {
	ClearAfterCheckout bool `json:"clear_after_checkout"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, unlock, err := h.sessions.Open(c)
	if err != nil {
		h.storageError(c, err)
		return
	}
	defer unlock()

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    store.Snapshot(),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store, unlock, err := h.sessions.Open(c)
	if err != nil {
		h.storageError(c, err)
		return
	}
	defer unlock()

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"count": store.Count()},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prompter := cart.NewScriptedPrompter(false)
	store, unlock, err := h.sessions.Open(c, cart.WithPrompter(prompter))
	if err != nil {
		h.storageError(c, err)
		return
	}
	defer unlock()

	if err := store.Add(c.Request.Context(), req.Name, string(req.Price), req.Variant, req.Image); err != nil {
		if errors.Is(err, cart.ErrInvalidItem) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Item added to cart successfully",
		"data":          store.Snapshot(),
		"notifications": prompter.Messages(),
	})
}

// UpdateCartItem handles PATCH /cart/items/:index. A quantity that drops to
// zero removes the line only with ?confirm=true.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	h.mutate(c, "Cart item updated successfully", func(store *cart.Store) error {
		return store.UpdateQuantity(c.Request.Context(), index, *req.Delta)
	})
}

// RemoveFromCart handles DELETE /cart/items/:index?confirm=true
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	h.mutate(c, "Cart item removal processed", func(store *cart.Store) error {
		return store.Remove(c.Request.Context(), index)
	})
}

// ClearCart handles DELETE /cart?confirm=true
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.mutate(c, "Cart clear processed", func(store *cart.Store) error {
		return store.Clear(c.Request.Context())
	})
}

// Checkout handles POST /cart/checkout. The pre-filled order message and its
// hand-off link are returned for the client to open.
func (h *CartHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prompter := cart.NewScriptedPrompter(req.ClearAfterCheckout)
	store, unlock, err := h.sessions.Open(c, cart.WithPrompter(prompter))
	if err != nil {
		h.storageError(c, err)
		return
	}
	defer unlock()

	order, err := store.Checkout(c.Request.Context())
	if errors.Is(err, cart.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         err.Error(),
			"notifications": prompter.Messages(),
		})
		return
	}
	if err != nil {
		h.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order ready to send",
		"data": gin.H{
			"order":                 order,
			"cart":                  store.Snapshot(),
			"clear_prompt_after_ms": h.clearDelay.Milliseconds(),
		},
		"notifications": prompter.Messages(),
	})
}

// mutate runs op against the session cart with confirmations answered by the
// confirm query parameter
func (h *CartHandler) mutate(c *gin.Context, message string, op func(*cart.Store) error) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	prompter := cart.NewScriptedPrompter(confirm)

	store, unlock, err := h.sessions.Open(c, cart.WithPrompter(prompter))
	if err != nil {
		h.storageError(c, err)
		return
	}
	defer unlock()

	if err := op(store); err != nil {
		h.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       message,
		"data":          store.Snapshot(),
		"notifications": prompter.Messages(),
	})
}

func (h *CartHandler) indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item index",
		})
		return 0, false
	}
	return index, true
}

func (h *CartHandler) storageError(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("session_id", h.sessions.SessionID(c)).Error("Cart storage failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to access cart",
	})
}

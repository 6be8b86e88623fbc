// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// DefaultStorageKey is the storage key of the cart
const DefaultStorageKey = "vardanCart"

// DefaultClearDelay is how long checkout waits before offering to clear the cart
const DefaultClearDelay = 1500 * time.Millisecond

var (
	// ErrEmptyCart is returned by Checkout when there is nothing to order
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidItem is returned by Add when the item cannot be stored
	ErrInvalidItem = errors.New("invalid cart item")
)

// View receives the cart's display state
type View interface {
	// Active reports whether the cart page is the current page
	Active() bool
	Render(snap Snapshot)
	UpdateCount(count int)
}

// Scheduler runs fn once after delay
type Scheduler func(delay time.Duration, fn func())

// Option configures a Store
type Option func(*Store)

// WithPrompter sets the confirmation, alert and notification sink
func WithPrompter(p Prompter) Option {
	return func(s *Store) { s.prompter = p }
}

// WithView sets the view rendered after mutations
func WithView(v View) Option {
	return func(s *Store) { s.view = v }
}

// WithHandOff sets the outbound checkout link opener
func WithHandOff(h HandOff) Option {
	return func(s *Store) { s.handOff = h }
}

// WithScheduler replaces the timer used for the post-checkout prompt
func WithScheduler(fn Scheduler) Option {
	return func(s *Store) { s.schedule = fn }
}

// WithCheckout sets the shop name and destination of the order hand-off
func WithCheckout(settings CheckoutSettings, clearDelay time.Duration) Option {
	return func(s *Store) {
		s.checkout = settings
		s.clearDelay = clearDelay
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = l }
}

// Store owns the ordered list of line items and mirrors it to durable storage
// under a single key. Methods are serialized by an internal lock, which the
// delayed post-checkout clear also takes. Prompter and View callbacks run
// with the lock held and must not call back into the Store.
type Store struct {
	mu         sync.Mutex
	storage    Storage
	key        string
	items      []LineItem
	prompter   Prompter
	view       View
	handOff    HandOff
	schedule   Scheduler
	checkout   CheckoutSettings
	clearDelay time.Duration
	logger     logrus.FieldLogger
}

// NewStore creates a cart store persisted under key
func NewStore(storage Storage, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultStorageKey
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		storage:    storage,
		key:        key,
		items:      []LineItem{},
		prompter:   silentPrompter{},
		schedule:   func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		checkout:   DefaultCheckoutSettings(),
		clearDelay: DefaultClearDelay,
		logger:     discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key of the cart
func (s *Store) Key() string {
	return s.key
}

// Load reads the cart from storage. A missing or unreadable value yields an
// empty cart; the count indicator is refreshed either way.
func (s *Store) Load(ctx context.Context) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.updateCount()

	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.items = []LineItem{}
		return s.snapshotItems(), fmt.Errorf("failed to load cart: %w", err)
	}
	if !found || raw == "" {
		s.items = []LineItem{}
		return s.snapshotItems(), nil
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("Stored cart is malformed, starting with an empty cart")
		s.items = []LineItem{}
		return s.snapshotItems(), nil
	}

	s.items = sanitize(items)
	return s.snapshotItems(), nil
}

// Save writes the whole cart to storage and refreshes the count indicator
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, s.items)
}

// Add puts one unit of (name, variant) in the cart. The numeric price is
// read from priceText; an existing line only has its quantity bumped.
// Nothing changes and nothing is announced when the write fails.
func (s *Store) Add(ctx context.Context, name, priceText, variant, image string) error {
	if name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidItem)
	}
	price, err := pricing.ParsePrice(priceText)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidItem, priceText, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshotItems()
	notice := NoticeAdded
	if i := FindItem(next, name, variant); i >= 0 {
		next[i].Quantity++
		notice = NoticeQuantityUpdated
	} else {
		next = append(next, LineItem{
			Name:      name,
			Price:     price,
			PriceText: priceText,
			Variant:   variant,
			Quantity:  1,
			Image:     image,
		})
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.prompter.Notify(notice)

	if s.view != nil && s.view.Active() {
		s.render()
	}
	return nil
}

// UpdateQuantity changes the quantity at index by delta. Reaching zero asks
// to remove the line instead. Out of range indexes are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, index, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid(index) {
		return nil
	}

	quantity := s.items[index].Quantity + delta
	if quantity <= 0 {
		return s.remove(ctx, index)
	}

	next := s.snapshotItems()
	next[index].Quantity = quantity
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.render()
	return nil
}

// Remove deletes the line at index after the user confirms
func (s *Store) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, index)
}

// Clear empties the cart after the user confirms. An empty cart is left alone.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil
	}
	if !s.prompter.Confirm(PromptClearCart) {
		return nil
	}
	return s.reset(ctx)
}

// Total returns the sum of price × quantity over all lines, unrounded
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CalculateTotal(s.items)
}

// Count returns the number of units in the cart
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountItems(s.items)
}

// Len returns the number of distinct lines
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the current lines in insertion order
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotItems()
}

// Snapshot returns the display state of the cart
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSnapshot(s.items)
}

// Render pushes the current state to the view
func (s *Store) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render()
}

// UpdateCartCount writes the unit count to the shared indicators
func (s *Store) UpdateCartCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCount()
}

// Checkout hands the order off as a pre-filled message, then offers to clear
// the cart after the configured delay.
func (s *Store) Checkout(ctx context.Context) (*Order, error) {
	order, err := s.handOffOrder()
	if err != nil {
		return nil, err
	}

	// the scheduler may run the callback inline, so the lock is not held here
	bg := context.WithoutCancel(ctx)
	s.schedule(s.clearDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.prompter.Confirm(PromptClearAfterCheckout) {
			return
		}
		if err := s.reset(bg); err != nil {
			s.logger.WithError(err).WithField("key", s.key).Error("Failed to clear cart after checkout")
		}
	})

	return order, nil
}

func (s *Store) handOffOrder() (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		s.prompter.Alert(AlertEmptyCart)
		return nil, ErrEmptyCart
	}

	message := OrderMessage(s.checkout.ShopName, s.items)
	order := &Order{
		Message: message,
		URL:     HandOffURL(s.checkout.PhoneNumber, message),
		Total:   CalculateTotal(s.items),
	}

	if s.handOff != nil {
		if err := s.handOff.Open(order.URL); err != nil {
			return nil, fmt.Errorf("failed to open checkout hand-off: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"key":   s.key,
		"lines": len(s.items),
		"total": order.Total,
	}).Info("Order handed off")
	return order, nil
}

// commit writes items to storage and adopts them only once the write
// succeeded
func (s *Store) commit(ctx context.Context, items []LineItem) error {
	defer s.updateCount()

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.items = items
	return nil
}

func (s *Store) remove(ctx context.Context, index int) error {
	if !s.valid(index) {
		return nil
	}
	if !s.prompter.Confirm(PromptRemoveItem) {
		return nil
	}

	next := s.snapshotItems()
	next = append(next[:index], next[index+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.render()
	s.prompter.Notify(NoticeItemRemoved)
	return nil
}

// reset drops the stored cart entirely; a missing key loads as empty
func (s *Store) reset(ctx context.Context) error {
	err := s.storage.Delete(ctx, s.key)
	if err == nil {
		s.items = []LineItem{}
	}
	s.updateCount()
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.render()
	s.prompter.Notify(NoticeCartCleared)
	return nil
}

func (s *Store) render() {
	if s.view == nil {
		return
	}
	s.view.Render(NewSnapshot(s.items))
}

func (s *Store) updateCount() {
	if s.view == nil {
		return
	}
	s.view.UpdateCount(CountItems(s.items))
}

func (s *Store) snapshotItems() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) valid(index int) bool {
	return index >= 0 && index < len(s.items)
}

// sanitize drops stored lines that could not have been written by the store
// and merges duplicate identity keys.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i := FindItem(out, item.Name, item.Variant); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}

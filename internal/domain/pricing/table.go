// internal/domain/pricing/table.go
package pricing

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultVariant is the variant key used by products sold in a single size
const DefaultVariant = "default"

var (
	// ErrUnknownProduct is returned when a product has no price table entry
	ErrUnknownProduct = errors.New("product not found in price table")
)

// Variant is one priced option of a product
type Variant struct {
	Name  string  `json:"variant"`
	Price float64 `json:"price"`
}

// Product is a price table entry with its variants in source order
type Product struct {
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
}

// Change describes a single write to the price table. Reloaded is set when
// the whole table was replaced and the other fields are empty.
type Change struct {
	Product  string
	Variant  string
	Price    float64
	Reloaded bool
}

// Source is the read side of a price table
type Source interface {
	Variants(product string) ([]Variant, bool)
	Products() []Product
}

// Observable is implemented by price sources that announce their writes
type Observable interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Table maps product names to ordered variant prices. It is safe for
// concurrent use.
type Table struct {
	mu          sync.RWMutex
	products    []Product
	index       map[string]int
	subscribers map[int]func(Change)
	nextSubID   int
}

// NewTable creates a table from products in display order
func NewTable(products ...Product) *Table {
	t := &Table{
		index:       make(map[string]int),
		subscribers: make(map[int]func(Change)),
	}
	for _, p := range products {
		for _, v := range p.Variants {
			t.set(p.Name, v.Name, v.Price)
		}
	}
	return t
}

// Variants returns a copy of the product's variants in source order
func (t *Table) Variants(product string) ([]Variant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[product]
	if !ok {
		return nil, false
	}
	out := make([]Variant, len(t.products[i].Variants))
	copy(out, t.products[i].Variants)
	return out, true
}

// Price returns the price of a product variant
func (t *Table) Price(product, variant string) (float64, bool) {
	variants, ok := t.Variants(product)
	if !ok {
		return 0, false
	}
	for _, v := range variants {
		if v.Name == variant {
			return v.Price, true
		}
	}
	return 0, false
}

// Products returns a snapshot of every product in source order
func (t *Table) Products() []Product {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Product, len(t.products))
	for i, p := range t.products {
		variants := make([]Variant, len(p.Variants))
		copy(variants, p.Variants)
		out[i] = Product{Name: p.Name, Variants: variants}
	}
	return out
}

// Len returns the number of products
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.products)
}

// Set writes a variant price and notifies subscribers. New products and
// variants are appended after the existing ones.
func (t *Table) Set(product, variant string, price float64) error {
	if product == "" {
		return fmt.Errorf("product name is required")
	}
	if variant == "" {
		variant = DefaultVariant
	}
	if price < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	t.mu.Lock()
	t.set(product, variant, price)
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	notify(subs, Change{Product: product, Variant: variant, Price: price})
	return nil
}

// Replace swaps the table contents for those of other and notifies
// subscribers once
func (t *Table) Replace(other *Table) {
	products := other.Products()

	t.mu.Lock()
	t.products = nil
	t.index = make(map[string]int, len(products))
	for _, p := range products {
		for _, v := range p.Variants {
			t.set(p.Name, v.Name, v.Price)
		}
	}
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	notify(subs, Change{Reloaded: true})
}

// Subscribe registers fn to be called after every Set or Replace
func (t *Table) Subscribe(fn func(Change)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSubID
	t.nextSubID++
	t.subscribers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
	}
}

func (t *Table) snapshotSubscribers() []func(Change) {
	subs := make([]func(Change), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}

func (t *Table) set(product, variant string, price float64) {
	i, ok := t.index[product]
	if !ok {
		t.products = append(t.products, Product{Name: product})
		i = len(t.products) - 1
		t.index[product] = i
	}

	variants := t.products[i].Variants
	for j := range variants {
		if variants[j].Name == variant {
			variants[j].Price = price
			return
		}
	}
	t.products[i].Variants = append(variants, Variant{Name: variant, Price: price})
}

// LoadTable reads a price table file. YAML and JSON are both accepted.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a document of the form
//
//	Neem Oil:
//	  100ml: 250
//	  200ml: 450
//
// keeping product and variant order.
func ParseTable(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse price table: %w", err)
	}

	t := NewTable()
	if len(doc.Content) == 0 {
		return t, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("price table must be a mapping of product names")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		variants := root.Content[i+1]

		switch variants.Kind {
		case yaml.ScalarNode:
			// "Soap: 80" is shorthand for a single default variant
			var price float64
			if err := variants.Decode(&price); err != nil {
				return nil, fmt.Errorf("invalid price for %q: %w", name, err)
			}
			t.set(name, DefaultVariant, price)
		case yaml.MappingNode:
			for j := 0; j+1 < len(variants.Content); j += 2 {
				var price float64
				if err := variants.Content[j+1].Decode(&price); err != nil {
					return nil, fmt.Errorf("invalid price for %q/%q: %w", name, variants.Content[j].Value, err)
				}
				t.set(name, variants.Content[j].Value, price)
			}
		default:
			return nil, fmt.Errorf("invalid variants for %q", name)
		}
	}

	return t, nil
}

// internal/domain/pricing/sale.go
package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnyVariant keys a discount that applies to every variant of a product
const AnyVariant = "*"

// SaleConfig describes which products are discounted and by how much
type SaleConfig struct {
	Enabled   bool                      `yaml:"enabled" json:"enabled"`
	Discounts map[string]map[string]int `yaml:"discounts" json:"discounts"` // product -> variant -> percent
}

// IsEnabled reports whether sales are active. A nil config is disabled.
func (c *SaleConfig) IsEnabled() bool {
	return c != nil && c.Enabled
}

// IsOnSale reports whether a product carries any discount entry
func (c *SaleConfig) IsOnSale(product string) bool {
	if !c.IsEnabled() {
		return false
	}
	_, ok := c.Discounts[product]
	return ok
}

// Discount returns the discount percentage for a product variant, or 0 when
// the product is on sale without a known percentage
func (c *SaleConfig) Discount(product, variant string) int {
	if !c.IsEnabled() {
		return 0
	}
	variants, ok := c.Discounts[product]
	if !ok {
		return 0
	}
	if pct, ok := variants[variant]; ok {
		return pct
	}
	return variants[AnyVariant]
}

// LoadSaleConfig reads a sale configuration file (YAML or JSON)
func LoadSaleConfig(path string) (*SaleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sale config: %w", err)
	}
	return ParseSaleConfig(data)
}

// ParseSaleConfig decodes a sale configuration document
func ParseSaleConfig(data []byte) (*SaleConfig, error) {
	var cfg SaleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sale config: %w", err)
	}

	for product, variants := range cfg.Discounts {
		for variant, pct := range variants {
			if pct < 0 || pct > 100 {
				return nil, fmt.Errorf("discount for %q/%q must be between 0 and 100", product, variant)
			}
		}
	}

	return &cfg, nil
}

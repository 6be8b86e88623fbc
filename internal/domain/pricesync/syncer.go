// internal/domain/pricesync/syncer.go
package pricesync

import (
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// Page hooks addressed by the display passes
const (
	SelectorFeaturedCard   = ".featured-product-card"
	SelectorFeaturedName   = ".featured-product-info h3"
	SelectorFeaturedPrice  = ".featured-product-price"
	SelectorCategoryItem   = ".products-container .product-item"
	SelectorProductName    = ".product-name"
	SelectorProductPrice   = ".product-price"
	SelectorVariantSelect  = ".variant-select"
	SelectorAddToCart      = ".add-to-cart-btn"
	SelectorDetailTitle    = ".product-detail-title, .product-page-title"
	SelectorDetailPrice    = ".product-detail-price, .product-page-price"
	SelectorDetailVariants = ".product-variant-select"
	SelectorAnyProduct     = ".product-item, .featured-product-card"
	SelectorAnyProductName = ".product-name, .featured-product-info h3"
	SelectorProductImage   = ".product-image, .featured-product-image"
	SelectorBadge          = ".product-badge"

	AttrPrice       = "data-price"
	AttrPriceLoaded = "data-price-loaded"
)

// ErrNoPriceTable is returned when a pass is attempted without a price table
var ErrNoPriceTable = errors.New("price table not loaded")

// Syncer writes prices from a price table into storefront pages
type Syncer struct {
	prices pricing.Source
	sale   *pricing.SaleConfig
	logger logrus.FieldLogger
}

// New creates a syncer. sale may be nil when no sale is configured.
func New(prices pricing.Source, sale *pricing.SaleConfig, logger logrus.FieldLogger) *Syncer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if t, ok := prices.(*pricing.Table); ok && t == nil {
		prices = nil
	}
	return &Syncer{
		prices: prices,
		sale:   sale,
		logger: logger,
	}
}

// Run is the page-load entry point: it loads every price and, when a sale is
// active, adds sale badges. Nothing is touched without a price table.
func (s *Syncer) Run(doc *goquery.Document) error {
	if s.prices == nil {
		s.logger.Error("Price table not loaded, skipping price display")
		return ErrNoPriceTable
	}

	s.LoadAllPrices(doc)
	if s.sale.IsEnabled() {
		s.AddSaleBadges(doc)
	}
	return nil
}

// LoadAllPrices runs the featured, category and detail passes
func (s *Syncer) LoadAllPrices(doc *goquery.Document) {
	if s.prices == nil {
		return
	}
	s.loadFeaturedPrices(doc)
	s.loadCategoryPrices(doc)
	s.loadDetailPrices(doc)
}

func (s *Syncer) loadFeaturedPrices(doc *goquery.Document) {
	doc.Find(SelectorFeaturedCard).Each(func(_ int, card *goquery.Selection) {
		name := textOf(card.Find(SelectorFeaturedName))
		if name == "" {
			return
		}

		priceEl := card.Find(SelectorFeaturedPrice)
		if priceEl.Length() == 0 {
			return
		}

		if price, ok := pricing.FormattedPrice(s.prices, name); ok {
			priceEl.SetText(price)
			priceEl.SetAttr(AttrPriceLoaded, "true")
		}
	})
}

func (s *Syncer) loadCategoryPrices(doc *goquery.Document) {
	doc.Find(SelectorCategoryItem).Each(func(_ int, item *goquery.Selection) {
		name := textOf(item.Find(SelectorProductName))
		if name == "" {
			return
		}

		if sel := item.Find(SelectorVariantSelect); sel.Length() > 0 {
			s.loadVariantPrices(name, item, sel)
		} else {
			s.loadSimplePrice(name, item)
		}
	})
}

// loadVariantPrices fills a product that exposes a variant selector
func (s *Syncer) loadVariantPrices(name string, item, sel *goquery.Selection) {
	variants, ok := s.prices.Variants(name)
	if !ok {
		s.logger.WithField("product", name).Warn("No variants found for product")
		return
	}

	if priceEl := item.Find(SelectorProductPrice); priceEl.Length() > 0 {
		display, _ := pricing.FormatDisplay(s.prices, name)
		priceEl.SetText(display)
		priceEl.SetAttr(AttrPriceLoaded, "true")
	}

	fillOptions(sel, variants)
	sel.SetAttr(AttrPriceLoaded, "true")
}

// loadSimplePrice fills a product sold in a single implicit variant
func (s *Syncer) loadSimplePrice(name string, item *goquery.Selection) {
	variants, ok := s.prices.Variants(name)
	if !ok || len(variants) == 0 {
		s.logger.WithField("product", name).Warn("No price found for product")
		return
	}

	first := variants[0]

	if priceEl := item.Find(SelectorProductPrice); priceEl.Length() > 0 {
		priceEl.SetText(pricing.SimpleDisplay(first.Name, first.Price))
		priceEl.SetAttr(AttrPriceLoaded, "true")
	}

	button := item.Find(SelectorAddToCart)
	if button.Length() == 0 {
		return
	}
	button.SetAttr(AttrPrice, pricing.FormatPrice(first.Price))
	if value, _ := button.Attr("value"); value == "" {
		button.SetAttr("value", first.Name)
	}
}

func (s *Syncer) loadDetailPrices(doc *goquery.Document) {
	title := doc.Find(SelectorDetailTitle).First()
	if title.Length() == 0 {
		return
	}

	name := textOf(title)
	variants, ok := s.prices.Variants(name)
	if !ok {
		return
	}

	if priceEl := doc.Find(SelectorDetailPrice).First(); priceEl.Length() > 0 {
		display, _ := pricing.FormatDisplay(s.prices, name)
		priceEl.SetText(display)
		priceEl.SetAttr(AttrPriceLoaded, "true")
	}

	if sel := doc.Find(SelectorDetailVariants).First(); sel.Length() > 0 {
		fillOptions(sel, variants)
	}
}

// fillOptions labels every option whose value is a known variant
func fillOptions(sel *goquery.Selection, variants []pricing.Variant) {
	prices := make(map[string]float64, len(variants))
	for _, v := range variants {
		prices[v.Name] = v.Price
	}

	sel.Find("option").Each(func(_ int, option *goquery.Selection) {
		variant, _ := option.Attr("value")
		price, ok := prices[variant]
		if !ok {
			return
		}
		option.SetAttr(AttrPrice, pricing.FormatPrice(price))
		option.SetText(pricing.OptionLabel(variant, price))
	})
}

func textOf(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}

// internal/domain/pricesync/tools.go
package pricesync

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
)

// Mismatch is a product whose rendered price differs from the price table
type Mismatch struct {
	Product     string `json:"product"`
	HTMLPrice   string `json:"html_price"`
	SystemPrice string `json:"system_price"`
}

// Verification tallies how many product prices were written by the sync
type Verification struct {
	Total   int      `json:"total"`
	Loaded  int      `json:"loaded"`
	Missing []string `json:"missing"`
}

// AddSaleBadges puts a discount badge on the image of every product on sale.
// Products that already carry a badge are skipped. Returns the number of
// badges added.
func (s *Syncer) AddSaleBadges(doc *goquery.Document) int {
	if !s.sale.IsEnabled() || s.prices == nil {
		return 0
	}

	added := 0
	doc.Find(SelectorAnyProduct).Each(func(_ int, item *goquery.Selection) {
		name := textOf(item.Find(SelectorAnyProductName))
		if name == "" || !s.sale.IsOnSale(name) {
			return
		}
		if item.Find(SelectorBadge).Length() > 0 {
			return
		}

		variant := pricing.DefaultVariant
		if variants, ok := s.prices.Variants(name); ok && len(variants) > 0 {
			variant = variants[0].Name
		}

		label := "SALE"
		if discount := s.sale.Discount(name, variant); discount > 0 {
			label = fmt.Sprintf("-%d%%", discount)
		}

		image := item.Find(SelectorProductImage).First()
		if image.Length() == 0 {
			return
		}
		setStyle(image, "position", "relative")
		image.AppendHtml(`<div class="product-badge sale">` + label + `</div>`)
		added++
	})

	if added > 0 {
		s.logger.WithField("count", added).Info("Sale badges added")
	}
	return added
}

// HighlightPriceUpdates compares rendered price text against the price
// table and flags each difference on the page. Nothing else is rewritten.
func (s *Syncer) HighlightPriceUpdates(doc *goquery.Document, report bool) []Mismatch {
	updates := []Mismatch{}
	if s.prices == nil {
		return updates
	}

	doc.Find(SelectorAnyProduct).Each(func(_ int, item *goquery.Selection) {
		name := textOf(item.Find(SelectorAnyProductName))
		if name == "" {
			return
		}

		priceEl := item.Find(SelectorProductPrice).First()
		if priceEl.Length() == 0 {
			return
		}
		htmlPrice := priceEl.Text()

		systemPrice, ok := pricing.FormatDisplay(s.prices, name)
		if !ok || htmlPrice == "" || htmlPrice == systemPrice {
			return
		}

		updates = append(updates, Mismatch{
			Product:     name,
			HTMLPrice:   htmlPrice,
			SystemPrice: systemPrice,
		})

		setStyle(priceEl, "background", "#fff3cd")
		setStyle(priceEl, "padding", "0.3rem 0.6rem")
		setStyle(priceEl, "border-radius", "4px")
		priceEl.SetAttr("title", fmt.Sprintf("Updated from %s to %s", htmlPrice, systemPrice))
	})

	if report && len(updates) > 0 {
		for _, u := range updates {
			s.logger.WithFields(logrus.Fields{
				"product":      u.Product,
				"html_price":   u.HTMLPrice,
				"system_price": u.SystemPrice,
			}).Warn("Price differs from price table")
		}
		s.logger.WithField("count", len(updates)).Warn("Found price differences between page and price table")
	}

	return updates
}

// VerifyAllPrices counts featured cards and category items whose price was
// written by LoadAllPrices
func (s *Syncer) VerifyAllPrices(doc *goquery.Document) Verification {
	result := Verification{Missing: []string{}}

	doc.Find(SelectorFeaturedCard).Each(func(_ int, card *goquery.Selection) {
		result.Total++
		if loaded(card.Find(SelectorFeaturedPrice)) {
			result.Loaded++
			return
		}
		result.Missing = append(result.Missing, "Featured: "+textOf(card.Find(SelectorFeaturedName)))
	})

	doc.Find(SelectorCategoryItem).Each(func(_ int, item *goquery.Selection) {
		result.Total++
		if loaded(item.Find(SelectorProductPrice)) {
			result.Loaded++
			return
		}
		result.Missing = append(result.Missing, "Product: "+textOf(item.Find(SelectorProductName)))
	})

	entry := s.logger.WithFields(logrus.Fields{
		"loaded": result.Loaded,
		"total":  result.Total,
	})
	if len(result.Missing) > 0 {
		entry.WithField("missing", result.Missing).Warn("Some prices were not loaded")
	} else {
		entry.Info("Price loading verified")
	}

	return result
}

// ExportCSV writes the price table as "Product Name,Variant,Price" rows
func (s *Syncer) ExportCSV(w io.Writer) error {
	if s.prices == nil {
		return ErrNoPriceTable
	}
	return WriteCSV(w, s.prices)
}

// WriteCSV writes one row per product variant, names double-quoted
func WriteCSV(w io.Writer, src pricing.Source) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("Product Name,Variant,Price\n")
	for _, p := range src.Products() {
		for _, v := range p.Variants {
			fmt.Fprintf(bw, "%s,%s,%s\n", quote(p.Name), quote(v.Name), strconv.FormatFloat(v.Price, 'f', -1, 64))
		}
	}
	return bw.Flush()
}

// ExportFileName is the download name of a CSV export made at now
func ExportFileName(now time.Time) string {
	return "vardan-prices-" + now.UTC().Format("2006-01-02") + ".csv"
}

// EnableLiveUpdates re-runs reload after every write to an observable price
// source. Sources that cannot announce writes leave live updates disabled.
// The returned func stops watching.
func (s *Syncer) EnableLiveUpdates(reload func()) func() {
	observable, ok := s.prices.(pricing.Observable)
	if !ok || s.prices == nil {
		s.logger.Warn("Price source does not support change notifications, live updates disabled")
		return func() {}
	}

	unsubscribe := observable.Subscribe(func(c pricing.Change) {
		s.logger.WithFields(logrus.Fields{
			"product": c.Product,
			"variant": c.Variant,
			"price":   c.Price,
		}).Info("Price updated")
		reload()
	})

	s.logger.Info("Live price updates enabled")
	return unsubscribe
}

func loaded(sel *goquery.Selection) bool {
	v, _ := sel.First().Attr(AttrPriceLoaded)
	return v == "true"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// setStyle sets one CSS property in an element's inline style, keeping the
// other declarations in place
func setStyle(sel *goquery.Selection, property, value string) {
	current, _ := sel.Attr("style")

	var decls []string
	replaced := false
	for _, decl := range strings.Split(current, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), property) {
			decl = property + ": " + value
			replaced = true
		}
		decls = append(decls, decl)
	}
	if !replaced {
		decls = append(decls, property+": "+value)
	}

	sel.SetAttr("style", strings.Join(decls, "; "))
}

package mapper

import (
	"strings"

	"github.com/shopspring/decimal"

	catalog "catalog-sync-backend/internal/domains/catalog/model"
	product "catalog-sync-backend/internal/domains/product/model"
)

// Style selects the rendered-image look. It only changes the image-service
// URL parameter; every other item field is identical across styles.
type Style string

const (
	StyleStandard  Style = "standard"
	StyleChristmas Style = "christmas"
)

func (s Style) IsValid() bool {
	return s == StyleStandard || s == StyleChristmas
}

const maxDescriptionLen = 5000

// Options carries the per-deployment constants stamped into every item.
type Options struct {
	Brand          string
	CurrencySuffix string
	ImageRenderURL string
}

// ToItem maps a source product (plus its variable parent, when the product
// is a variation) into the flat ad-catalog item shape. Pure and
// deterministic: identical inputs produce identical items.
func ToItem(p *product.Product, parent *product.Product, style Style, opts Options) *catalog.Item {
	item := &catalog.Item{
		ID:           catalog.RetailerID(p),
		Condition:    "new",
		Availability: catalog.Availability(p.StockStatus),
		Brand:        opts.Brand,
		ItemGroupID:  catalog.GroupID(p),
		Inventory:    p.Quantity(),
	}

	// Variations inherit name, link, description and categories from the
	// parent when they carry none of their own.
	item.Title = p.Name
	if parent != nil && parent.Name != "" {
		item.Title = parent.Name
	}

	item.Link = p.Permalink
	if item.Link == "" && parent != nil {
		item.Link = parent.Permalink
	}

	description := p.Description
	if description == "" && parent != nil {
		description = parent.Description
	}
	stripped := StripHTML(description)
	item.Description = Truncate(stripped, maxDescriptionLen)
	item.RichTextDescription = stripped

	price := formatPrice(priceOf(p))
	item.Price = price + " " + opts.CurrencySuffix

	salePrice := ""
	if hasSalePrice(p) {
		salePrice = formatPrice(p.SalePrice)
		item.SalePrice = salePrice + " " + opts.CurrencySuffix
	}

	if parent != nil {
		item.ProductType = parent.CategoryPath()
	} else {
		item.ProductType = p.CategoryPath()
	}

	extractAttributes(item, p, parent)

	imageURL := p.FirstImage()
	if imageURL == "" && parent != nil {
		imageURL = parent.FirstImage()
	}
	if imageURL != "" && opts.ImageRenderURL != "" {
		item.Images = renderImages(opts.ImageRenderURL, item.Title, price, salePrice, imageURL, style)
		item.ImageLink = item.Images[0].URL
	}

	return item
}

// priceOf returns the regular price, falling back to the current price.
func priceOf(p *product.Product) string {
	if strings.TrimSpace(p.RegularPrice) != "" {
		return p.RegularPrice
	}
	return p.Price
}

func hasSalePrice(p *product.Product) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(p.SalePrice))
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// formatPrice normalizes a source price string to two decimals. Unparseable
// values pass through as-is rather than dropping the item.
func formatPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}

// Attribute names the ad catalog recognizes. Matching is by lowercased
// substring so source names like "Color" or "pa_color" both hit.
var attributeKeys = []struct {
	key string
	set func(*catalog.Item, string)
}{
	{"color", func(it *catalog.Item, v string) { it.Color = v }},
	{"size", func(it *catalog.Item, v string) { it.Size = v }},
	{"gender", func(it *catalog.Item, v string) { it.Gender = v }},
	{"age", func(it *catalog.Item, v string) { it.AgeGroup = v }},
}

// extractAttributes fills color/size/gender/age_group from the merged
// attribute lists. The product's own attributes come first so a variation's
// concrete option beats the parent's full option list.
func extractAttributes(item *catalog.Item, p *product.Product, parent *product.Product) {
	merged := make([]product.Attribute, 0, len(p.Attributes)+8)
	merged = append(merged, p.Attributes...)
	if parent != nil {
		merged = append(merged, parent.Attributes...)
	}

	for _, entry := range attributeKeys {
		for _, attr := range merged {
			if !strings.Contains(strings.ToLower(attr.Name), entry.key) {
				continue
			}
			if v := attr.Value(); v != "" {
				entry.set(item, v)
			}
			break
		}
	}
}

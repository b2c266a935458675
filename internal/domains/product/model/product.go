package model

import (
	"time"
)

// ProductKind tags the three shapes a source product can take.
type ProductKind string

const (
	KindSimple    ProductKind = "simple"
	KindVariable  ProductKind = "variable"
	KindVariation ProductKind = "variation"
)

func (k ProductKind) IsValid() bool {
	switch k {
	case KindSimple, KindVariable, KindVariation:
		return true
	}
	return false
}

func (k ProductKind) String() string {
	return string(k)
}

// StockStatus is the source store's tri-state stock flag.
type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

func (s StockStatus) String() string {
	return string(s)
}

// Attribute is a typed product attribute from the source store. Variations
// carry a single Option, parents carry the Options list.
type Attribute struct {
	Name    string   `json:"name"`
	Option  string   `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Value returns the single attribute value, preferring Option over Options[0].
func (a Attribute) Value() string {
	if a.Option != "" {
		return a.Option
	}
	if len(a.Options) > 0 {
		return a.Options[0]
	}
	return ""
}

type Image struct {
	Src string `json:"src"`
}

type Category struct {
	Name string `json:"name"`
}

// Product is a source-side item. The JSON tags match the source REST API so
// the source client decodes straight into this struct; the same struct backs
// both the products and variations tables.
//
// Invariants: a variation has Kind == KindVariation and ParentID > 0; a
// variable parent has Kind == KindVariable and ParentID == 0.
type Product struct {
	ID            int64       `json:"id"`
	ParentID      int64       `json:"parent_id"`
	Kind          ProductKind `json:"type"`
	Name          string      `json:"name"`
	SKU           string      `json:"sku"`
	Permalink     string      `json:"permalink"`
	RegularPrice  string      `json:"regular_price"`
	SalePrice     string      `json:"sale_price"`
	Price         string      `json:"price"`
	StockStatus   StockStatus `json:"stock_status"`
	StockQuantity *int        `json:"stock_quantity"`
	Description   string      `json:"description"`
	Images        []Image     `json:"images"`
	Attributes    []Attribute `json:"attributes"`
	Variations    []int64     `json:"variations"`
	Categories    []Category  `json:"categories"`

	UpdatedAt time.Time `json:"-"`
}

// InStock reports whether the item is sellable right now.
func (p *Product) InStock() bool {
	return p.StockStatus == StockInStock
}

// IsVariation reports whether this row is a child of a variable product.
// The kind tag wins; a positive parent-id is accepted as a fallback because
// some push payloads arrive without the type field.
func (p *Product) IsVariation() bool {
	return p.Kind == KindVariation || (p.Kind == "" && p.ParentID > 0)
}

// FirstImage returns the primary image URL, or "" when the product has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].Src
}

// CategoryPath joins category names with "/" for the product_type field.
func (p *Product) CategoryPath() string {
	if len(p.Categories) == 0 {
		return ""
	}
	path := p.Categories[0].Name
	for _, c := range p.Categories[1:] {
		path += "/" + c.Name
	}
	return path
}

// Quantity returns the stock quantity with the out-of-stock zero rule
// applied: an out-of-stock product always reports 0, never "absent".
func (p *Product) Quantity() *int {
	if p.StockStatus == StockOutOfStock {
		zero := 0
		return &zero
	}
	return p.StockQuantity
}

// Counters aggregates cache-side totals for the status endpoint.
type Counters struct {
	Total      int `json:"total"`
	Simple     int `json:"simple"`
	Variable   int `json:"variable"`
	Variations int `json:"variations"`
	InStock    int `json:"in_stock"`
}

package model

// RenderedImage is one entry of the ad catalog's image array. The remote API
// spells the tag list "tag", singular.
type RenderedImage struct {
	URL  string   `json:"url"`
	Tags []string `json:"tag"`
}

// Item is the flat ad-catalog item shape. The same struct feeds the batch
// API data block and the CSV feed rows.
type Item struct {
	ID                     string          `json:"id"`
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	RichTextDescription    string          `json:"rich_text_description,omitempty"`
	Availability           string          `json:"availability"`
	Condition              string          `json:"condition"`
	Price                  string          `json:"price"`
	SalePrice              string          `json:"sale_price,omitempty"`
	SalePriceEffectiveDate string          `json:"sale_price_effective_date,omitempty"`
	Link                   string          `json:"link"`
	ImageLink              string          `json:"image_link,omitempty"`
	Brand                  string          `json:"brand,omitempty"`
	ItemGroupID            string          `json:"item_group_id,omitempty"`
	ProductType            string          `json:"product_type,omitempty"`
	GoogleProductCategory  string          `json:"google_product_category,omitempty"`
	Color                  string          `json:"color,omitempty"`
	Size                   string          `json:"size,omitempty"`
	Gender                 string          `json:"gender,omitempty"`
	AgeGroup               string          `json:"age_group,omitempty"`
	Status                 string          `json:"status,omitempty"`
	Inventory              *int            `json:"inventory,omitempty"`
	Images                 []RenderedImage `json:"image,omitempty"`
}

// ImageTag returns image[i].tag[j] or "" when out of range, for CSV export.
func (it *Item) ImageTag(i, j int) string {
	if i >= len(it.Images) || j >= len(it.Images[i].Tags) {
		return ""
	}
	return it.Images[i].Tags[j]
}

// ImageURL returns image[i].url or "" when out of range.
func (it *Item) ImageURL(i int) string {
	if i >= len(it.Images) {
		return ""
	}
	return it.Images[i].URL
}

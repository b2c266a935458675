package mapper

import (
	"encoding/base64"
	"net/url"

	model "catalog-sync-backend/internal/domains/catalog/model"
)

// The render service always charges prices in KM, independent of the
// currency suffix the catalog items carry.
const renderCurrency = "KM"

type renderSpec struct {
	aspectRatio string
	tags        []string
}

// Fixed order and tag sets; the downstream platform picks the variant it
// wants by tag.
var renderSpecs = []renderSpec{
	{aspectRatio: "1:1", tags: nil},
	{aspectRatio: "4:5", tags: []string{"ASPECT_RATIO_4_5_PREFERRED"}},
	{aspectRatio: "9:16", tags: []string{"STORY_PREFERRED", "REELS_PREFERRED"}},
}

// renderImages composes the three rendered-image URLs against the external
// image service. imageURL is the original source image; price and salePrice
// are plain numeric strings.
func renderImages(baseURL, name, price, salePrice, imageURL string, style Style) []model.RenderedImage {
	images := make([]model.RenderedImage, 0, len(renderSpecs))

	for _, spec := range renderSpecs {
		q := url.Values{}
		q.Set("price", price+" "+renderCurrency)
		if salePrice != "" {
			q.Set("discount_price", salePrice+" "+renderCurrency)
		}
		q.Set("name", name)
		q.Set("img", base64.URLEncoding.EncodeToString([]byte(imageURL)))
		q.Set("style", string(style))
		q.Set("aspect_ratio", spec.aspectRatio)

		images = append(images, model.RenderedImage{
			URL:  baseURL + "?" + q.Encode(),
			Tags: spec.tags,
		})
	}

	return images
}

package service

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	catalog "catalog-sync-backend/internal/domains/catalog/model"
)

// csvColumns is a hard external contract: the downstream consumer ingests
// by position, so the order must never change. Golden tests pin it.
var csvColumns = []string{
	"id", "title", "description", "rich_text_description", "availability",
	"condition", "price", "link", "image_link", "brand",
	"image[0].url", "image[0].tag[0]",
	"image[1].url", "image[1].tag[0]",
	"image[2].url", "image[2].tag[0]", "image[2].tag[1]",
	"age_group", "color", "gender", "item_group_id",
	"google_product_category", "product_type", "sale_price",
	"sale_price_effective_date", "size", "status", "inventory",
}

// writeCSV serializes items with every field quoted, empty or not, which
// rules out encoding/csv (it quotes only when forced to).
func writeCSV(w io.Writer, items []*catalog.Item) error {
	bw := bufio.NewWriter(w)

	if err := writeRow(bw, csvColumns); err != nil {
		return err
	}
	for _, item := range items {
		if err := writeRow(bw, itemRow(item)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(field)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func itemRow(it *catalog.Item) []string {
	inventory := ""
	if it.Inventory != nil {
		inventory = strconv.Itoa(*it.Inventory)
	}

	return []string{
		it.ID,
		it.Title,
		it.Description,
		it.RichTextDescription,
		it.Availability,
		it.Condition,
		it.Price,
		it.Link,
		it.ImageLink,
		it.Brand,
		it.ImageURL(0), it.ImageTag(0, 0),
		it.ImageURL(1), it.ImageTag(1, 0),
		it.ImageURL(2), it.ImageTag(2, 0), it.ImageTag(2, 1),
		it.AgeGroup,
		it.Color,
		it.Gender,
		it.ItemGroupID,
		it.GoogleProductCategory,
		it.ProductType,
		it.SalePrice,
		it.SalePriceEffectiveDate,
		it.Size,
		it.Status,
		inventory,
	}
}

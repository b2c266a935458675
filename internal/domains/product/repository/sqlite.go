package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	catalog "catalog-sync-backend/internal/domains/catalog/model"
	model "catalog-sync-backend/internal/domains/product/model"
	"catalog-sync-backend/internal/infrastructure/database"
)

type sqliteRepository struct {
	db *database.DB
}

func NewSQLiteRepository(db *database.DB) Repository {
	return &sqliteRepository{db: db}
}

const productUpsertQuery = `
	INSERT INTO products (
		id, parent_id, kind, name, sku, permalink,
		regular_price, sale_price, price, stock_status, stock_quantity,
		description, retailer_id, images, attributes, categories, variation_ids
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		parent_id      = excluded.parent_id,
		kind           = excluded.kind,
		name           = excluded.name,
		sku            = excluded.sku,
		permalink      = excluded.permalink,
		regular_price  = excluded.regular_price,
		sale_price     = excluded.sale_price,
		price          = excluded.price,
		stock_status   = excluded.stock_status,
		stock_quantity = excluded.stock_quantity,
		description    = excluded.description,
		retailer_id    = excluded.retailer_id,
		images         = excluded.images,
		attributes     = excluded.attributes,
		categories     = excluded.categories,
		variation_ids  = excluded.variation_ids,
		updated_at     = datetime('now')
`

const variationUpsertQuery = `
	INSERT INTO variations (
		id, parent_id, name, sku, permalink,
		regular_price, sale_price, price, stock_status, stock_quantity,
		description, retailer_id, images, attributes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		parent_id      = excluded.parent_id,
		name           = excluded.name,
		sku            = excluded.sku,
		permalink      = excluded.permalink,
		regular_price  = excluded.regular_price,
		sale_price     = excluded.sale_price,
		price          = excluded.price,
		stock_status   = excluded.stock_status,
		stock_quantity = excluded.stock_quantity,
		description    = excluded.description,
		retailer_id    = excluded.retailer_id,
		images         = excluded.images,
		attributes     = excluded.attributes,
		updated_at     = datetime('now')
`

func (r *sqliteRepository) Upsert(ctx context.Context, p *model.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, productUpsertQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
	}

	return nil
}

func (r *sqliteRepository) BulkUpsert(ctx context.Context, products []model.Product) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, productUpsertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare product upsert: %w", err)
		}
		defer stmt.Close()

		for i := range products {
			args, err := productArgs(&products[i])
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to upsert product %d: %w", products[i].ID, err)
			}
		}

		return nil
	})
}

func (r *sqliteRepository) UpsertVariations(ctx context.Context, parentID int64, variations []model.Product) error {
	return r.UpsertVariationSets(ctx, map[int64][]model.Product{parentID: variations})
}

func (r *sqliteRepository) UpsertVariationSets(ctx context.Context, sets map[int64][]model.Product) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, variationUpsertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare variation upsert: %w", err)
		}
		defer stmt.Close()

		for parentID, variations := range sets {
			for i := range variations {
				v := &variations[i]
				v.ParentID = parentID
				v.Kind = model.KindVariation

				args, err := variationArgs(v)
				if err != nil {
					return err
				}
				if _, err := stmt.ExecContext(ctx, args...); err != nil {
					return fmt.Errorf("failed to upsert variation %d: %w", v.ID, err)
				}
			}
		}

		return nil
	})
}

const productColumns = `
	id, parent_id, kind, name, sku, permalink,
	regular_price, sale_price, price, stock_status, stock_quantity,
	description, images, attributes, categories, variation_ids
`

const variationColumns = `
	id, parent_id, name, sku, permalink,
	regular_price, sale_price, price, stock_status, stock_quantity,
	description, images, attributes
`

func (r *sqliteRepository) Get(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *sqliteRepository) GetVariation(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+variationColumns+" FROM variations WHERE id = ?", id)

	v, err := scanVariation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *sqliteRepository) GetAny(ctx context.Context, id int64) (*model.Product, error) {
	p, err := r.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	return r.GetVariation(ctx, id)
}

func (r *sqliteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (r *sqliteRepository) DeleteVariation(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM variations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete variation %d: %w", id, err)
	}
	return nil
}

func (r *sqliteRepository) ListInStockByKind(ctx context.Context, kind model.ProductKind) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE kind = ? AND stock_status = ? ORDER BY id",
		kind.String(), model.StockInStock.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

func (r *sqliteRepository) ListVariationsByParent(ctx context.Context, parentID int64) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+variationColumns+" FROM variations WHERE parent_id = ? ORDER BY id", parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variations of %d: %w", parentID, err)
	}
	defer rows.Close()

	var variations []model.Product
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, err
		}
		variations = append(variations, *v)
	}

	return variations, rows.Err()
}

func (r *sqliteRepository) Counters(ctx context.Context) (*model.Counters, error) {
	c := &model.Counters{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN kind = 'simple' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'variable' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN stock_status = 'instock' THEN 1 ELSE 0 END), 0)
		FROM products
	`).Scan(&c.Total, &c.Simple, &c.Variable, &c.InStock)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM variations").Scan(&c.Variations); err != nil {
		return nil, fmt.Errorf("failed to count variations: %w", err)
	}

	return c, nil
}

// =====================================================
// ROW MARSHALLING
// =====================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func productArgs(p *model.Product) ([]interface{}, error) {
	images, attributes, err := marshalJSONCols(p.Images, p.Attributes)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", p.ID, err)
	}

	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return nil, fmt.Errorf("product %d: failed to marshal categories: %w", p.ID, err)
	}

	variationIDs, err := json.Marshal(p.Variations)
	if err != nil {
		return nil, fmt.Errorf("product %d: failed to marshal variation ids: %w", p.ID, err)
	}

	return []interface{}{
		p.ID, p.ParentID, p.Kind.String(), p.Name, p.SKU, p.Permalink,
		p.RegularPrice, p.SalePrice, p.Price, p.StockStatus.String(), nullableInt(p.StockQuantity),
		p.Description, catalog.RetailerID(p), string(images), string(attributes), string(categories), string(variationIDs),
	}, nil
}

func variationArgs(v *model.Product) ([]interface{}, error) {
	images, attributes, err := marshalJSONCols(v.Images, v.Attributes)
	if err != nil {
		return nil, fmt.Errorf("variation %d: %w", v.ID, err)
	}

	return []interface{}{
		v.ID, v.ParentID, v.Name, v.SKU, v.Permalink,
		v.RegularPrice, v.SalePrice, v.Price, v.StockStatus.String(), nullableInt(v.StockQuantity),
		v.Description, catalog.RetailerID(v), string(images), string(attributes),
	}, nil
}

func marshalJSONCols(images []model.Image, attributes []model.Attribute) ([]byte, []byte, error) {
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return imagesJSON, attributesJSON, nil
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p                  model.Product
		kind, status       string
		qty                sql.NullInt64
		images, attrs      string
		categories, varIDs string
	)

	err := row.Scan(
		&p.ID, &p.ParentID, &kind, &p.Name, &p.SKU, &p.Permalink,
		&p.RegularPrice, &p.SalePrice, &p.Price, &status, &qty,
		&p.Description, &images, &attrs, &categories, &varIDs,
	)
	if err != nil {
		return nil, err
	}

	p.Kind = model.ProductKind(kind)
	p.StockStatus = model.StockStatus(status)
	p.StockQuantity = intPointer(qty)

	if err := unmarshalJSONCols(&p, images, attrs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("product %d: failed to unmarshal categories: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(varIDs), &p.Variations); err != nil {
		return nil, fmt.Errorf("product %d: failed to unmarshal variation ids: %w", p.ID, err)
	}

	return &p, nil
}

func scanVariation(row rowScanner) (*model.Product, error) {
	var (
		v             model.Product
		status        string
		qty           sql.NullInt64
		images, attrs string
	)

	err := row.Scan(
		&v.ID, &v.ParentID, &v.Name, &v.SKU, &v.Permalink,
		&v.RegularPrice, &v.SalePrice, &v.Price, &status, &qty,
		&v.Description, &images, &attrs,
	)
	if err != nil {
		return nil, err
	}

	v.Kind = model.KindVariation
	v.StockStatus = model.StockStatus(status)
	v.StockQuantity = intPointer(qty)

	if err := unmarshalJSONCols(&v, images, attrs); err != nil {
		return nil, err
	}

	return &v, nil
}

func unmarshalJSONCols(p *model.Product, images, attrs string) error {
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return fmt.Errorf("product %d: failed to unmarshal images: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return fmt.Errorf("product %d: failed to unmarshal attributes: %w", p.ID, err)
	}
	return nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
